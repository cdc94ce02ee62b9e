package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/opsgrid/cbcheck/internal/models"
	"github.com/opsgrid/cbcheck/internal/utils"
)

// NSCA forwards passive check results to a Nagios host by spawning the
// send_nsca binary once per result. Invocations are small in number (tens
// to low hundreds per run), so per-result processes are an accepted
// simplicity tradeoff.
type NSCA struct {
	path   string
	host   string
	port   int
	logger *slog.Logger
}

// NewNSCA validates the send_nsca path up front; a missing binary is an
// unrecoverable configuration error.
func NewNSCA(path, host string, port int, logger *slog.Logger) (*NSCA, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, utils.NewAppError("notify.nsca",
			fmt.Sprintf("path to send_nsca is invalid: %s", path), err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NSCA{path: path, host: host, port: port, logger: logger}, nil
}

// Send writes one tab-separated passive check line to a fresh send_nsca
// process. A non-zero exit is fatal for the run.
func (n *NSCA) Send(ctx context.Context, result models.CheckResult) error {
	line := fmt.Sprintf("%s\t%s\t%d\t%s\n",
		result.Host, result.Service, result.Severity, result.Message)

	cmd := exec.CommandContext(ctx, n.path, "-H", n.host, "-p", strconv.Itoa(n.port))
	cmd.Stdin = strings.NewReader(line)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return utils.NewAppError("notify.nsca",
			fmt.Sprintf("failed to send check result: %s", strings.TrimSpace(string(out))), err)
	}

	n.logger.Debug("sent passive check",
		slog.String("service", result.Service),
		slog.Int("status", int(result.Severity)))
	return nil
}
