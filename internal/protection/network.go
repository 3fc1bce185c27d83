package protection

import (
	"strings"
	"time"
)

const (
	ThreatPortScanning = "PORT_SCANNING"
	ThreatBruteForce   = "BRUTE_FORCE"

	bruteForceThreshold = 5
)

type PacketFlags struct {
	SYN bool `json:"syn"`
	ACK bool `json:"ack"`
}

type Packet struct {
	SourceIP        string      `json:"source_ip,omitempty"`
	DestinationPort int         `json:"destination_port,omitempty"`
	Protocol        string      `json:"protocol,omitempty"`
	Flags           PacketFlags `json:"flags"`
	AttemptCount    int         `json:"attempt_count,omitempty"`
}

type TrafficData struct {
	Packets []Packet `json:"packets"`
}

type PacketThreat struct {
	SourceIP   string `json:"source_ip,omitempty"`
	ThreatType string `json:"threat_type"`
	Severity   string `json:"severity"`
	Action     string `json:"action"`
}

type TrafficAnalysis struct {
	AnalysisTime       time.Time      `json:"analysis_time"`
	ThreatsDetected    []PacketThreat `json:"threats_detected"`
	ConnectionsBlocked int            `json:"connections_blocked"`
	RecommendedActions []string       `json:"recommended_actions"`
}

// NetworkService classifies packet summaries with two fixed rules.
type NetworkService struct {
	now func() time.Time
}

func NewNetworkService() *NetworkService {
	return &NetworkService{now: time.Now}
}

func (s *NetworkService) AnalyzeTraffic(data TrafficData) TrafficAnalysis {
	res := TrafficAnalysis{
		AnalysisTime:       s.now().UTC(),
		ThreatsDetected:    []PacketThreat{},
		RecommendedActions: []string{},
	}
	for _, p := range data.Packets {
		if threat, ok := classifyPacket(p); ok {
			res.ThreatsDetected = append(res.ThreatsDetected, threat)
			res.ConnectionsBlocked++
		}
	}
	res.RecommendedActions = networkRecommendations(res.ThreatsDetected)
	return res
}

// classifyPacket checks the port scan rule before the brute force rule.
func classifyPacket(p Packet) (PacketThreat, bool) {
	switch {
	case p.Flags.SYN && !p.Flags.ACK:
		return PacketThreat{SourceIP: p.SourceIP, ThreatType: ThreatPortScanning, Severity: "MEDIUM", Action: "BLOCKED"}, true
	case isRemoteLogin(p.Protocol) && p.AttemptCount > bruteForceThreshold:
		return PacketThreat{SourceIP: p.SourceIP, ThreatType: ThreatBruteForce, Severity: "HIGH", Action: "BLOCKED"}, true
	}
	return PacketThreat{}, false
}

func isRemoteLogin(protocol string) bool {
	switch strings.ToUpper(protocol) {
	case "SSH", "RDP":
		return true
	}
	return false
}

func networkRecommendations(threats []PacketThreat) []string {
	var portScan, bruteForce bool
	for _, t := range threats {
		switch t.ThreatType {
		case ThreatPortScanning:
			portScan = true
		case ThreatBruteForce:
			bruteForce = true
		}
	}
	out := []string{}
	if portScan {
		out = append(out, "Reforzar reglas de firewall para puertos sensibles")
	}
	if bruteForce {
		out = append(out, "Implementar autenticación multi-factor", "Limitar intentos de conexión")
	}
	return out
}
