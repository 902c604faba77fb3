// Package sources fetches video data from YouTube.
//
// Files by responsibility:
//
//	youtube_url.go         video ID resolution from user-supplied links
//	youtube_innertube.go   watch page and Innertube player, low-level HTTP
//	youtube_transcript.go  caption tracks, timedtext parsing and the ordered
//	                       fallback chain from video ID to transcript
//	youtube_title.go       best-effort og:title scrape
package sources
