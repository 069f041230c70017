// Package smoke drives an end-to-end pass through every registered
// provider: create, track, label, cancel. It is wired against simulated
// carrier transports, so a run validates the stack without booking real
// shipments.
package smoke

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/wasel/courierhub/internal/service"
	"github.com/wasel/courierhub/pkg/courier"
)

var (
	passMark = color.New(color.FgGreen).Sprint("✓")
	failMark = color.New(color.FgRed).Sprint("✗")
	skipMark = color.New(color.FgYellow).Sprint("-")
)

type stepStatus int

const (
	statusPass stepStatus = iota
	statusFail
	statusSkip
)

type stepResult struct {
	step   string
	status stepStatus
	detail string
}

func pass(step, detail string) stepResult { return stepResult{step: step, status: statusPass, detail: detail} }

func fail(step, detail string) stepResult { return stepResult{step: step, status: statusFail, detail: detail} }

func skip(step, detail string) stepResult { return stepResult{step: step, status: statusSkip, detail: detail} }

// Run exercises every registered provider concurrently and writes one line
// per step to out. It returns an error when any step fails.
func Run(ctx context.Context, svc *service.Service, out io.Writer) error {
	providers := svc.ListProviders()
	if len(providers) == 0 {
		return errors.New("no providers registered")
	}

	results := make([][]stepResult, len(providers))
	g, ctx := errgroup.WithContext(ctx)
	for i, info := range providers {
		g.Go(func() error {
			results[i] = runProvider(ctx, svc, info)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for i, info := range providers {
		for _, res := range results[i] {
			mark := passMark
			switch res.status {
			case statusFail:
				mark = failMark
				failed++
			case statusSkip:
				mark = skipMark
			}
			fmt.Fprintf(out, "%s %-8s %-7s %s\n", mark, info.Name, res.step, res.detail)
		}
	}

	if failed > 0 {
		return errors.Errorf("%d smoke step(s) failed", failed)
	}
	fmt.Fprintln(out, "all providers passed")
	return nil
}

func runProvider(ctx context.Context, svc *service.Service, info service.ProviderInfo) []stepResult {
	var results []stepResult

	created, err := svc.CreateShipment(ctx, info.Name, sampleRequest(info.Name))
	if err != nil {
		return append(results, fail("create", err.Error()))
	}
	results = append(results, pass("create",
		fmt.Sprintf("waybill=%s cost=%.2f %s", created.WaybillNumber, created.Cost, created.Currency)))

	tracked, err := svc.TrackShipment(ctx, created.WaybillNumber)
	switch {
	case err != nil:
		results = append(results, fail("track", err.Error()))
	case !tracked.Success:
		results = append(results, fail("track", strings.Join(tracked.Errors, "; ")))
	default:
		results = append(results, pass("track",
			fmt.Sprintf("status=%s events=%d", tracked.Status, len(tracked.Events))))
	}

	label, err := svc.GetLabel(ctx, created.WaybillNumber)
	switch {
	case err != nil:
		results = append(results, fail("label", err.Error()))
	case !label.Success:
		results = append(results, skip("label", strings.Join(label.Errors, "; ")))
	default:
		results = append(results, pass("label", "format="+label.Format))
	}

	if !courier.HasFeature(info.Features, courier.FeatureCancellation) {
		results = append(results, skip("cancel", "not supported"))
		return results
	}

	cancelled, err := svc.CancelShipment(ctx, created.WaybillNumber, "smoke test cleanup")
	switch {
	case err != nil:
		results = append(results, fail("cancel", err.Error()))
	case !cancelled.Success:
		results = append(results, fail("cancel", strings.Join(cancelled.Errors, "; ")))
	default:
		results = append(results, pass("cancel", "id="+cancelled.CancellationID))
	}

	return results
}

func sampleRequest(provider string) *courier.ShipmentRequest {
	return &courier.ShipmentRequest{
		ReferenceNumber: fmt.Sprintf("SMOKE-%s-%d", provider, time.Now().UnixNano()),
		Sender: courier.Address{
			Name:         "Courier Hub Smoke",
			AddressLine1: "8332 King Abdulaziz Road",
			City:         "Riyadh",
			Country:      "SA",
			Phone:        "+966112345678",
		},
		Recipient: courier.Address{
			Name:         "Smoke Recipient",
			AddressLine1: "4410 Prince Sultan Road",
			City:         "Jeddah",
			Country:      "SA",
			Phone:        "+966126543210",
		},
		Package: courier.PackageDetails{
			Weight:      1.2,
			Description: "Smoke test parcel",
		},
		Priority: courier.PriorityStandard,
	}
}
