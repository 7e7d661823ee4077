// Package health checks whether the userdesk server is reachable by calling
// its standard gRPC health service.
package health

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var ErrNotServing = errors.New("server is not serving")

// Probe is a lazily connected health client. grpc.NewClient does not dial,
// so constructing a Probe for an unreachable server succeeds.
type Probe struct {
	conn   *grpc.ClientConn
	client healthpb.HealthClient
}

func NewProbe(addr string, opts ...grpc.DialOption) (*Probe, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("health client %s: %w", addr, err)
	}
	return &Probe{conn: conn, client: healthpb.NewHealthClient(conn)}, nil
}

// Ping returns nil when the server reports SERVING for the overall service.
func (p *Probe) Ping(ctx context.Context) error {
	resp, err := p.client.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: %s", ErrNotServing, resp.GetStatus())
	}
	return nil
}

func (p *Probe) Close() error {
	return p.conn.Close()
}
