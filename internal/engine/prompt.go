package engine

// LLM prompt templates. Data only.

// directiveBlock wraps every completion. Args: template, content.
const directiveBlock = `%s

Important instructions:
- Provide detailed, specific content
- Include actual examples and quotes when available
- Skip sections that have no meaningful content
- Maintain proper formatting throughout
- Do not generate placeholder or filler content

Content to analyze: %s`

// ChunkPrompt is the map-step prompt run once per transcript chunk.
const ChunkPrompt = `Analyze this portion of the video transcript and provide:
1. Key points discussed in this section
2. Notable quotes and spoken content:
   - Capture complete phrases and sentences that:
     * Express important concepts
     * Demonstrate key insights
     * Show speaker's perspective
   - Include speaker identification where possible
   - Include context around the quote
   - Include exact timestamps
3. Technical data, statistics, or numerical information
4. Important concepts and definitions
5. Brief summary of the content

For quotes and technical data:
- Preserve exact wording
- Include timestamps in [HH:MM:SS] format
- Identify speakers when possible
- Include brief context around each quote
- Only include substantive quotes that add value
- Omit filler phrases or incomplete thoughts

Transcript section: `

// FinalPrompt is the reduce-step synthesis prompt with the ten-section layout.
const FinalPrompt = `Based on the analysis of all sections, provide a comprehensive summary with:
1. Main Topic/Title: Identify the title of the video and the core subject

2. Executive Summary (200 words): Brief overview

3. Key Points (10-20): Most important concepts discussed

4. Detailed Analysis (2000 words): In-depth discussion

5. Notable Quotes and Key Statements:
   - Include only substantive quotes that demonstrate key insights
   - Format: "[HH:MM:SS] Speaker (if known): Quote"
   - Add brief context around each quote
   - Explain significance when relevant
   - Skip if no meaningful quotes are found

6. Technical Data & Statistics:
   - List all statistical information
   - Skip section if none found

7. Key Terms & Definitions:
   - Technical terminology explained
   - Skip section if none found

8. Concepts & Frameworks:
   - Theoretical frameworks discussed
   - Skip section if none found

9. Timeline & Structure:
   - Content progression
   - Skip if not relevant

10. Practical Applications:
    - Real-world examples
    - Skip if not applicable

Format:
- Include headers only for non-empty sections
- Use clear formatting for quotes: "[HH:MM:SS] Speaker: Quote (Context/Significance)"
- Maintain consistent formatting throughout
- Skip any sections where no relevant content is found

Please synthesize this complete summary: `

// FastSummaryPrompt is the single-pass executive summary prompt.
const FastSummaryPrompt = `Provide a concise executive summary of the video transcript.
- Limit the summary to 200-500 words.
- Focus on the main ideas, key insights, and central theme.
- Skip detailed quotes, technical terms, or extensive sections.`

// qaPrompt grounds an answer in the summary and transcript.
// Args: question, summary, transcript.
const qaPrompt = `Based on the video transcript and summary, answer this question:

Question: %s

Summary:
%s

Transcript:
%s

Please provide a specific answer based on the video content.`
