package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"coldchain_logger/internal/logger"
	"coldchain_logger/internal/models"
)

const (
	maxPayloadBytes   = 100
	sessionEndEvent   = "spark/device/session/end"
	hookResponseEvent = "Hook Response"
)

// ConnectivityGateway sends reports and tracks the single outstanding one.
// It never waits on the network: the acknowledgement arrives later through
// OnAcknowledgement.
type ConnectivityGateway struct {
	transport   Transport
	reportEvent string
	log         *logger.Logger

	inFlight bool
	sentAt   time.Time
}

func NewConnectivityGateway(t Transport, reportEvent string, log *logger.Logger) *ConnectivityGateway {
	if log == nil {
		log = logger.NewNop()
	}
	return &ConnectivityGateway{transport: t, reportEvent: reportEvent, log: log}
}

// Send queues the sample for delivery and arms the acknowledgement deadline.
func (g *ConnectivityGateway) Send(s models.SensorSample, now time.Time) {
	payload := fmt.Sprintf(`{"Temperature":%4.1f, "Humidity":%4.1f,"Battery":%d}`,
		s.TemperatureC, s.Humidity, s.StateOfCharge)
	if len(payload) > maxPayloadBytes {
		payload = payload[:maxPayloadBytes]
	}
	g.transport.Publish(g.reportEvent, payload, true)
	g.inFlight = true
	g.sentAt = now
	g.log.Debugw("report_sent", "event", g.reportEvent, "payload", payload)
}

func (g *ConnectivityGateway) InFlight() bool { return g.inFlight }

// Expired reports whether the outstanding report has waited longer than wait.
func (g *ConnectivityGateway) Expired(now time.Time, wait time.Duration) bool {
	return g.inFlight && now.Sub(g.sentAt) > wait
}

// Timeout gives up on the outstanding report and asks the transport to start
// a fresh session on its next connect.
func (g *ConnectivityGateway) Timeout() {
	g.transport.Publish(sessionEndEvent, "", true)
	g.inFlight = false
	g.log.Warnw("report_ack_timeout", "sent_at", g.sentAt, "error", ErrAckTimeout)
}

// OnAcknowledgement classifies the webhook response. Only 200 and 201 count as
// delivered; anything else leaves the report in flight for the timeout path.
func (g *ConnectivityGateway) OnAcknowledgement(dc *DeviceContext, payload string, now time.Time) bool {
	verbose := dc.System.Verbose
	if strings.TrimSpace(payload) == "" {
		if verbose {
			g.transport.Publish(hookResponseEvent, "No Data", true)
		}
		return false
	}

	code := leadingInt(payload)
	if code != 200 && code != 201 {
		if verbose {
			g.transport.Publish(hookResponseEvent, payload, true)
		}
		g.log.Infow("report_ack_rejected", "payload", payload)
		return false
	}

	if verbose {
		g.transport.Publish("State", "Response Received", true)
	}
	dc.Alerts.ClearLatches()
	dc.System.LastAckUnix = now.Unix()
	dc.markDirty(dirtyAlerts | dirtySystem)
	g.inFlight = false
	g.log.Infow("report_acknowledged", "code", code)
	return true
}

// leadingInt parses the integer at the start of s, ignoring anything after
// it. Returns 0 when s does not start with a number.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[0] == '-' || s[0] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
