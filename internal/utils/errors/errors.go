package errors

import (
	"errors"
)

var (
	// General Errors
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrUnsupportedFile   = errors.New("unsupported file format")
	ErrPathNotAccessible = errors.New("path is not accessible")

	// File & Directory Errors
	ErrFileNotFound   = errors.New("file not found")
	ErrFileReadError  = errors.New("error reading file")
	ErrFileWriteError = errors.New("error writing to file")
	ErrDirNotFound    = errors.New("directory not found")

	// Input Errors
	ErrEmptyInputPath = errors.New("no input path supplied")

	// DEX Format Errors
	ErrHeaderTooShort = errors.New("file is shorter than the dex checksum header")

	// Checksum Errors
	ErrChecksumMismatch   = errors.New("stored checksum does not match expected checksum")
	ErrInvalidByteOrder   = errors.New("invalid checksum byte order")
	ErrInvalidFormat      = errors.New("invalid checksum output format")
	ErrInvalidHasher      = errors.New("invalid hasher")
	ErrUnsupportedHashAlg = errors.New("unsupported hash algorithm")

	// Compression Errors
	ErrCompressionFailed      = errors.New("compression failed")
	ErrDecompressionFailed    = errors.New("decompression failed")
	ErrUnsupportedCompression = errors.New("unsupported compression format")
	ErrInvalidCompressionLvl  = errors.New("invalid compression level")

	// Report Errors
	ErrUnsupportedReportFormat = errors.New("unsupported report format")
	ErrReportEncoding          = errors.New("error encoding report")

	// VirusTotal API Errors
	ErrAPIKeyMissing         = errors.New("API key is required")
	ErrAPICommunicationError = errors.New("error communicating with VirusTotal API")
	ErrResourceNotFound      = errors.New("requested resource not found")
	ErrInvalidHash           = errors.New("invalid file hash")

	// Configuration Errors
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrConfigParseError = errors.New("error parsing configuration")
	ErrNotInitialized   = errors.New("component not initialized")
)
