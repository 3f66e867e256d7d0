package services

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/tutoo-mr/tutoo_core/shared"
)

// ConnectivityService is the platform connectivity signal. It probes the
// backend health endpoint in the background and classifies round-trip
// latency into slow/normal/fast buckets. The speed bucket is advisory only,
// used for adaptive content quality, never a hard gate.
type ConnectivityService struct {
	appContext.DefaultService

	apiBase       string
	probeInterval time.Duration
	client        *http.Client

	mu          sync.RWMutex
	online      bool
	speed       string
	subscribers []func(online bool)

	stop chan struct{}
}

const CONNECTIVITY_SVC = "connectivity_svc"

func (svc ConnectivityService) Id() string {
	return CONNECTIVITY_SVC
}

func (svc *ConnectivityService) Configure(ctx *appContext.Context) error {
	svc.apiBase = os.Getenv("TUTOO_API_BASE")
	if svc.apiBase == "" {
		svc.apiBase = "http://localhost:8000/api/v1"
	}

	svc.probeInterval = 30 * time.Second
	svc.client = &http.Client{Timeout: 5 * time.Second}
	svc.online = true
	svc.speed = shared.NetworkSpeedNormal
	svc.stop = make(chan struct{})

	return svc.DefaultService.Configure(ctx)
}

func (svc *ConnectivityService) Start() error {
	go svc.probeLoop()
	return nil
}

func (svc *ConnectivityService) Shutdown() {
	close(svc.stop)
}

func (svc *ConnectivityService) IsOnline() bool {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.online
}

func (svc *ConnectivityService) NetworkSpeed() string {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.speed
}

// Subscribe registers a callback fired on every online/offline transition.
// Callbacks run on the probe goroutine and must not block.
func (svc *ConnectivityService) Subscribe(fn func(online bool)) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.subscribers = append(svc.subscribers, fn)
}

// SetOnline overrides the detected state. Used by the state controller when
// a request fails mid-flight, and by tests.
func (svc *ConnectivityService) SetOnline(online bool) {
	svc.mu.Lock()
	changed := svc.online != online
	svc.online = online
	subscribers := append([]func(online bool){}, svc.subscribers...)
	svc.mu.Unlock()

	if changed {
		for _, fn := range subscribers {
			fn(online)
		}
	}
}

func (svc *ConnectivityService) probeLoop() {
	ticker := time.NewTicker(svc.probeInterval)
	defer ticker.Stop()

	svc.Probe(context.Background())

	for {
		select {
		case <-svc.stop:
			return
		case <-ticker.C:
			svc.Probe(context.Background())
		}
	}
}

// Probe issues a tiny request against /health and updates both the online
// flag and the latency bucket.
func (svc *ConnectivityService) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.apiBase+"/health", nil)
	if err != nil {
		svc.SetOnline(false)
		return false
	}

	start := time.Now()
	resp, err := svc.client.Do(req)
	if err != nil {
		log.WithError(err).Debug("Connectivity probe failed")
		svc.SetOnline(false)
		return false
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)

	svc.mu.Lock()
	switch {
	case elapsed < 500*time.Millisecond:
		svc.speed = shared.NetworkSpeedFast
	case elapsed < 1500*time.Millisecond:
		svc.speed = shared.NetworkSpeedNormal
	default:
		svc.speed = shared.NetworkSpeedSlow
	}
	svc.mu.Unlock()

	svc.SetOnline(resp.StatusCode < 500)
	return true
}
