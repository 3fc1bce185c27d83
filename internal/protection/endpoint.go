package protection

import (
	"math/rand"
	"sync"
	"time"
)

var securityRecommendations = []string{
	"Mantener el sistema operativo actualizado",
	"Revisar políticas de firewall",
	"Realizar escaneo completo semanal",
	"Verificar configuraciones de backup",
}

type AntivirusStatus struct {
	Status             string    `json:"status"`
	DefinitionsUpdated bool      `json:"definitions_updated"`
	LastUpdate         time.Time `json:"last_update"`
	ThreatsDetected    int       `json:"threats_detected"`
}

type FirewallStatus struct {
	Status             string `json:"status"`
	RulesActive        int    `json:"rules_active"`
	BlockedConnections int    `json:"blocked_connections"`
}

type BehaviorStatus struct {
	Status               string `json:"status"`
	SuspiciousActivities int    `json:"suspicious_activities"`
	ProcessesMonitored   int    `json:"processes_monitored"`
}

type RansomwareLayerStatus struct {
	Status            string `json:"status"`
	BackupEnabled     bool   `json:"backup_enabled"`
	RemediationActive bool   `json:"remediation_active"`
	IncidentsBlocked  int    `json:"incidents_blocked"`
}

type WebProtectionStatus struct {
	Status                  string `json:"status"`
	MaliciousSitesBlocked   int    `json:"malicious_sites_blocked"`
	PhishingAttemptsBlocked int    `json:"phishing_attempts_blocked"`
}

type LayeredStatus struct {
	Antivirus            AntivirusStatus       `json:"antivirus"`
	Firewall             FirewallStatus        `json:"firewall"`
	BehaviorMonitoring   BehaviorStatus        `json:"behavior_monitoring"`
	RansomwareProtection RansomwareLayerStatus `json:"ransomware_protection"`
	WebProtection        WebProtectionStatus   `json:"web_protection"`
}

type EndpointStatus struct {
	EndpointID       string        `json:"endpoint_id"`
	OverallStatus    string        `json:"overall_status"`
	LastScan         time.Time     `json:"last_scan"`
	ThreatsBlocked   int           `json:"threats_blocked"`
	ProtectionStatus LayeredStatus `json:"protection_status"`
	Recommendations  []string      `json:"recommendations"`
}

// EndpointService reports a simulated layered protection status.
type EndpointService struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

func NewEndpointService(rnd *rand.Rand) *EndpointService {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &EndpointService{rnd: rnd, now: time.Now}
}

// between returns a value in [lo, hi].
func (s *EndpointService) between(lo, hi int) int {
	return lo + s.rnd.Intn(hi-lo+1)
}

func (s *EndpointService) SecurityStatus(endpointID string) EndpointStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	status := EndpointStatus{
		EndpointID:     endpointID,
		OverallStatus:  "PROTECTED",
		LastScan:       now,
		ThreatsBlocked: s.between(0, 50),
		ProtectionStatus: LayeredStatus{
			Antivirus: AntivirusStatus{
				Status:             "ACTIVE",
				DefinitionsUpdated: true,
				LastUpdate:         now,
				ThreatsDetected:    s.between(0, 10),
			},
			Firewall: FirewallStatus{
				Status:             "ACTIVE",
				RulesActive:        45,
				BlockedConnections: s.between(100, 500),
			},
			BehaviorMonitoring: BehaviorStatus{
				Status:               "MONITORING",
				SuspiciousActivities: s.between(0, 5),
				ProcessesMonitored:   s.between(50, 200),
			},
			RansomwareProtection: RansomwareLayerStatus{
				Status:            "PROTECTED",
				BackupEnabled:     true,
				RemediationActive: true,
				IncidentsBlocked:  s.between(0, 20),
			},
			WebProtection: WebProtectionStatus{
				Status:                  "ACTIVE",
				MaliciousSitesBlocked:   s.between(50, 200),
				PhishingAttemptsBlocked: s.between(10, 50),
			},
		},
	}

	perm := s.rnd.Perm(len(securityRecommendations))
	status.Recommendations = []string{
		securityRecommendations[perm[0]],
		securityRecommendations[perm[1]],
	}
	return status
}
