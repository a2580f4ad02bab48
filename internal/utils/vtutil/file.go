package vtutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-dex-checksum/internal/logger"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"

	vt "github.com/VirusTotal/vt-go"
)

// File hash types
const (
	HashTypeMD5    = "md5"
	HashTypeSHA1   = "sha1"
	HashTypeSHA256 = "sha256"
)

// LookupFileByHash fetches the VirusTotal file report for an MD5, SHA-1 or
// SHA-256 hash. Unknown files return ErrResourceNotFound.
func (c *Client) LookupFileByHash(ctx context.Context, fileHash string) (*FileReport, error) {
	fileHash = strings.ToLower(strings.TrimSpace(fileHash))
	hashType := detectHashType(fileHash)
	if hashType == "" {
		return nil, fmt.Errorf("%w: %q is not an md5, sha1 or sha256 hex digest", errors.ErrInvalidHash, fileHash)
	}

	cacheKey := "file_hash:" + fileHash
	if cached, found := c.getCachedReport(cacheKey); found {
		logger.LogDebug("Retrieved file hash lookup from cache", map[string]interface{}{
			"hash": fileHash,
			"type": hashType,
		})
		return cached, nil
	}

	var fileObj *vt.Object
	lookupErr := c.executeWithRetry(ctx, "file_lookup:"+fileHash, func() error {
		var err error
		fileObj, err = c.fetch(vt.URL("files/%s", fileHash))
		return err
	}, isNotFound)

	if lookupErr != nil {
		if isNotFound(lookupErr) {
			logger.LogInfo("File not found in VirusTotal database", map[string]interface{}{
				"hash": fileHash,
			})
			return nil, fmt.Errorf("%w: %s", errors.ErrResourceNotFound, fileHash)
		}
		if ctx.Err() != nil {
			return nil, lookupErr
		}
		return nil, fmt.Errorf("%w: %w", errors.ErrAPICommunicationError, lookupErr)
	}

	report := parseFileObject(fileObj)
	if report.SHA256 == "" && hashType == HashTypeSHA256 {
		report.SHA256 = fileHash
		report.Permalink = permalink(fileHash)
	}
	c.cacheReport(cacheKey, report)
	return report, nil
}

// isNotFound reports whether the API rejected the lookup because the object
// does not exist. Such errors are never retried.
func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "notfounderror") || strings.Contains(msg, "not found")
}

// parseFileObject parses a VirusTotal file object into a FileReport
func parseFileObject(obj *vt.Object) *FileReport {
	report := &FileReport{}

	report.SHA256, _ = obj.GetString("sha256")

	report.Name, _ = obj.GetString("meaningful_name")
	if report.Name == "" {
		report.Name, _ = obj.GetString("name")
	}

	report.Type, _ = obj.GetString("type_description")
	if report.Type == "" {
		report.Type, _ = obj.GetString("type_tag")
	}

	if size, err := obj.GetInt64("size"); err == nil {
		report.Size = size
	}

	if scanDate, err := obj.GetTime("last_analysis_date"); err == nil {
		report.ScanDate = scanDate
	}

	if stats, err := obj.Get("last_analysis_stats"); err == nil {
		report.PositiveCount, report.TotalCount = analysisCounts(stats)
	}

	if tags, err := obj.GetStringSlice("tags"); err == nil {
		report.Tags = tags
	}

	if report.SHA256 != "" {
		report.Permalink = permalink(report.SHA256)
	}

	return report
}

// analysisCounts extracts the malicious and total engine counts from a
// last_analysis_stats attribute
func analysisCounts(stats interface{}) (positives, total int) {
	m, ok := stats.(map[string]interface{})
	if !ok {
		return 0, 0
	}

	for category, count := range m {
		n, ok := count.(float64)
		if !ok {
			continue
		}
		total += int(n)
		if category == "malicious" {
			positives = int(n)
		}
	}
	return positives, total
}

// detectHashType tries to determine the hash type from its format
func detectHashType(hash string) string {
	if !isHexString(hash) {
		return ""
	}

	switch len(hash) {
	case 32:
		return HashTypeMD5
	case 40:
		return HashTypeSHA1
	case 64:
		return HashTypeSHA256
	}
	return ""
}

// isHexString checks if a string is a valid hexadecimal string
func isHexString(s string) bool {
	for _, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')) {
			return false
		}
	}
	return s != ""
}
