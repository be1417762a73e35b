// Package report writes and reads the plain-text and CSV report files.
//
// Every write goes through WriteFileAtomic: data lands in a temporary file
// next to the target and is renamed into place, so an interrupted run never
// leaves a half-written report. Parent directories are created on demand.
//
// Usage:
//
//	if err := report.WriteLines("outputs/fans.txt", result.NotFollowedBack); err != nil {
//	    return err
//	}
//
//	usernames, err := report.ReadLines("outputs/not_following_back.txt")
package report
