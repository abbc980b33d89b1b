package subtitles

import "fmt"

// SyncToleranceSeconds is how far the last cue may run past the video end
// before the track is reported as out of sync.
const SyncToleranceSeconds = 30.0

// ValidateSync checks a track against the video duration and returns the
// issues found. An empty track is always in sync.
func ValidateSync(track Track, videoDurationS float64) []string {
	if len(track.Entries) == 0 {
		return nil
	}

	var issues []string
	if last := track.EndS(); videoDurationS > 0 && last > videoDurationS+SyncToleranceSeconds {
		issues = append(issues, fmt.Sprintf("last_cue_past_video_end: cue_end=%.1fs video=%.1fs", last, videoDurationS))
	}
	for i := 1; i < len(track.Entries); i++ {
		if track.Entries[i].StartS < track.Entries[i-1].StartS {
			issues = append(issues, fmt.Sprintf("cues_out_of_order: cue %d starts before cue %d", track.Entries[i].Index, track.Entries[i-1].Index))
			break
		}
	}
	return issues
}
