package core

import "time"

// DumpResults lists results of the dump.
type DumpResults struct {
	Start     time.Time
	End       time.Time
	Timestamp string
	// Command is the base command line, password masked.
	Command          string
	GTIDSupported    bool
	Warnings         []string
	ErrorLog         string
	NotificationSent bool
	NotifyErr        error
	Targets          []TargetResult
}

// Failed reports whether any target did not dump cleanly.
func (r DumpResults) Failed() bool {
	for _, t := range r.Targets {
		if t.Err != nil {
			return true
		}
	}
	return false
}

// TargetResult is the outcome of dumping one target.
type TargetResult struct {
	Target     Target
	OutputFile string
	// CompressedFile is set when the dump was compressed; OutputFile no longer exists then.
	CompressedFile string
	// ExitCode of mysqldump, or -1 if it could not be run.
	ExitCode int
	Err      error
	Size     int64
	Start    time.Time
	End      time.Time
	Uploads  []UploadResult
}

// Artifact is the file left on disk for this target.
func (r TargetResult) Artifact() string {
	if r.CompressedFile != "" {
		return r.CompressedFile
	}
	return r.OutputFile
}

// UploadResult lists results of an individual upload
type UploadResult struct {
	Target   string
	Filename string
	Start    time.Time
	End      time.Time
	Err      error
}
