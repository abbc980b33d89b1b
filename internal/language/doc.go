// Package language normalizes subtitle language tags.
//
// Tags come from subtitle file names ("talk.fre.srt", "abc.pt-BR.vtt"), yt-dlp
// listings, and configuration. They are reduced to ISO 639-1 base codes with
// an optional lower-cased region so that "fre", "fra", "french", and "fr"
// all compare equal.
package language
