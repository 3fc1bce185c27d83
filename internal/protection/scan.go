package protection

import (
	"time"

	"github.com/google/uuid"

	"github.com/iquiquesec/ciberseguridad/internal/types"
)

// riskThreshold is the risk score at or above which a scan reports an incident.
const riskThreshold = 70

// ScanEndpoint simulates a ransomware sweep of one endpoint. Endpoints marked
// at risk or scoring at least riskThreshold yield a contained incident.
func ScanEndpoint(e types.Endpoint, now time.Time) (types.RansomwareIncident, bool) {
	if e.ProtectionStatus != types.StatusAtRisk && e.RiskScore < riskThreshold {
		return types.RansomwareIncident{}, false
	}
	targeted := int(e.RiskScore)
	if targeted < 1 {
		targeted = 1
	}
	return types.RansomwareIncident{
		ID:                 uuid.New(),
		EndpointID:         e.ID,
		DetectionTime:      now.UTC(),
		FilesTargeted:      targeted,
		FilesProtected:     targeted,
		EncryptionAttempts: targeted/10 + 1,
		BackupCreated:      true,
		Status:             "CONTAINED",
	}, true
}
