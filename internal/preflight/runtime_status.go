package preflight

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// CheckMetricsEndpoint probes a running daemon's health endpoint.
func CheckMetricsEndpoint(ctx context.Context, bind string) Result {
	const name = "Metrics endpoint"

	bind = strings.TrimSpace(bind)
	if bind == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	host := bind
	if strings.HasPrefix(host, ":") {
		host = "127.0.0.1" + host
	}

	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, "http://"+host+"/healthz", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("bad bind address (%v)", err)}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{Name: name, Detail: fmt.Sprintf("unhealthy (%d)", resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}
