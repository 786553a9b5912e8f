package common

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Global variable to control debug output
var VerboseMode bool = false

var sugar *zap.SugaredLogger

// SetVerboseMode enables or disables verbose/debug output
func SetVerboseMode(verbose bool) {
	VerboseMode = verbose
	sugar = nil
}

// logger lazily builds the process logger. Console encoder at info level,
// debug level when verbose mode is on.
func logger() *zap.SugaredLogger {
	if sugar == nil {
		config := zap.NewDevelopmentConfig()
		if !VerboseMode {
			config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		}
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		built, err := config.Build(zap.WithCaller(false))
		if err != nil {
			built = zap.NewNop()
		}
		zap.ReplaceGlobals(built)
		sugar = built.Sugar()
	}
	return sugar
}

// Error messages
const (
	ErrFailedToReadHeader       = "failed to read entry header"
	ErrFailedToReadPayload      = "failed to read file payload"
	ErrFailedToReadPadding      = "failed to read entry padding"
	ErrFailedToWriteHeader      = "failed to write entry header"
	ErrFailedToWritePayload     = "failed to write file payload"
	ErrFailedToWritePadding     = "failed to write entry padding"
	ErrFailedToReadVertex       = "failed to read vertex"
	ErrFailedToReadNormal       = "failed to read normal"
	ErrFailedToReadUV           = "failed to read texture coordinate"
	ErrFailedToReadColor        = "failed to read vertex color"
	ErrFailedToReadAnimation    = "failed to read animation block"
	ErrFailedToReadTexture      = "failed to read texture"
	ErrFailedToWriteTexture     = "failed to write texture"
	ErrFailedToReadSuperblock   = "failed to read superblock"
	ErrFailedToReadFAT          = "failed to read FAT cluster"
	ErrFailedToReadCluster      = "failed to read data cluster"
	ErrFailedToLoadConfig       = "failed to load psu.toml"
	ErrFailedToLoadRules        = "failed to load timestamp rules"
	ErrFailedToCreateOutputFile = "failed to create output file"
	ErrFailedToWriteArchive     = "failed to write archive"
)

// Info messages
const (
	InfoArchiveCreated   = "PSU archive created successfully"
	InfoArchiveExtracted = "PSU archive extracted successfully"
	InfoFilesPacked      = "Files packed"
	InfoIconExported     = "Icon exported"
	InfoEntriesFound     = "Entries found"
)

// Warning messages
const (
	WarnIncludeMissing   = "include entry not found, skipping"
	WarnIncludeHasPath   = "include entry contains a path separator, skipping"
	WarnConfigNeverPacks = "psu.toml is never packed, ignoring include entry"
)

// Debug messages
const (
	DebugEntryRead    = "entry %q: kind=%#04x size=%d"
	DebugClusterChain = "cluster chain hop: %d -> %d"
	DebugPlannedSlot  = "category %d slot %d for %q"
)

// LogInfo logs an informational message
func LogInfo(message string, args ...interface{}) {
	logger().Infof(message, args...)
}

// LogWarn logs a warning message
func LogWarn(message string, args ...interface{}) {
	logger().Warnf(message, args...)
}

// LogError logs an error message
func LogError(message string, args ...interface{}) {
	logger().Errorf(message, args...)
}

// LogDebug logs a debug message (only if VerboseMode is enabled)
func LogDebug(message string, args ...interface{}) {
	if !VerboseMode {
		return
	}
	logger().Debugf(message, args...)
}
