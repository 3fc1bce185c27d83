package protection

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

const (
	OpRename = "RENAME"
	OpWrite  = "WRITE"

	ThreatLevelHigh = "HIGH"
	ThreatLevelLow  = "LOW"

	// massWriteThreshold is the file count above which a single WRITE is treated as suspicious.
	massWriteThreshold = 100
)

var (
	ransomExtensionMarkers = []string{"crypt", "locked", "encrypted", "ransom"}
	backupExtensions       = map[string]bool{
		"doc": true, "docx": true, "pdf": true, "xls": true, "xlsx": true, "ppt": true, "pptx": true,
	}
)

type FileOperation struct {
	OperationType string `json:"operation_type" validate:"required"`
	FileName      string `json:"file_name,omitempty"`
	FilePath      string `json:"file_path,omitempty"`
	OldName       string `json:"old_name,omitempty"`
	NewName       string `json:"new_name,omitempty"`
	FileCount     int    `json:"file_count,omitempty" validate:"gte=0"`
}

type MonitorRequest struct {
	EndpointID     string          `json:"endpoint_id" validate:"required"`
	FileOperations []FileOperation `json:"file_operations" validate:"dive"`
}

type Backup struct {
	FilePath   string    `json:"file_path"`
	FileName   string    `json:"file_name"`
	BackupTime time.Time `json:"backup_time"`
	Hash       string    `json:"hash"`
}

type MonitorResult struct {
	EndpointID           string          `json:"endpoint_id"`
	Timestamp            time.Time       `json:"timestamp"`
	SuspiciousActivities []FileOperation `json:"suspicious_activities"`
	FilesProtected       int             `json:"files_protected"`
	Backups              []Backup        `json:"backups"`
	ThreatLevel          string          `json:"threat_level"`
}

type ProcessInfo struct {
	PID  int    `json:"pid" validate:"required"`
	Name string `json:"name"`
}

type BlockResult struct {
	ProcessID   int       `json:"process_id"`
	ProcessName string    `json:"process_name"`
	Action      string    `json:"action"`
	Reason      string    `json:"reason"`
	Timestamp   time.Time `json:"timestamp"`
}

// RansomwareService flags file activity that looks like bulk encryption. It
// matches fixed patterns only and does not inspect file contents.
type RansomwareService struct {
	now func() time.Time
}

func NewRansomwareService() *RansomwareService {
	return &RansomwareService{now: time.Now}
}

func (s *RansomwareService) MonitorFileOperations(req MonitorRequest) MonitorResult {
	res := MonitorResult{
		EndpointID:           req.EndpointID,
		Timestamp:            s.now().UTC(),
		SuspiciousActivities: []FileOperation{},
		Backups:              []Backup{},
		ThreatLevel:          ThreatLevelLow,
	}
	for _, op := range req.FileOperations {
		if IsSuspicious(op) {
			res.SuspiciousActivities = append(res.SuspiciousActivities, op)
		}
		if shouldBackup(op) {
			res.Backups = append(res.Backups, s.backup(op))
			res.FilesProtected++
		}
	}
	if len(res.SuspiciousActivities) > 0 {
		res.ThreatLevel = ThreatLevelHigh
	}
	return res
}

// IsSuspicious reports whether op renames a file to a ransom-style extension
// or writes to more than massWriteThreshold files at once.
func IsSuspicious(op FileOperation) bool {
	switch strings.ToUpper(op.OperationType) {
	case OpRename:
		ext := extension(op.NewName)
		for _, marker := range ransomExtensionMarkers {
			if strings.Contains(ext, marker) {
				return true
			}
		}
	case OpWrite:
		return op.FileCount > massWriteThreshold
	}
	return false
}

func shouldBackup(op FileOperation) bool {
	return backupExtensions[extension(op.FileName)]
}

// extension returns the lower-cased text after the last dot, or the whole
// name when it has none.
func extension(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

func (s *RansomwareService) backup(op FileOperation) Backup {
	payload, _ := json.Marshal(op)
	sum := sha256.Sum256(payload)
	return Backup{
		FilePath:   op.FilePath,
		FileName:   op.FileName,
		BackupTime: s.now().UTC(),
		Hash:       hex.EncodeToString(sum[:]),
	}
}

func (s *RansomwareService) BlockProcess(p ProcessInfo) BlockResult {
	return BlockResult{
		ProcessID:   p.PID,
		ProcessName: p.Name,
		Action:      "TERMINATED",
		Reason:      "Ransomware behavior detected",
		Timestamp:   s.now().UTC(),
	}
}
