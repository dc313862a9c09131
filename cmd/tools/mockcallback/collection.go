package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ascendancy-backend/internal/infra/adumo"
)

type collectionOptions struct {
	Secret         string
	ScheduleID     string
	TxIndex        string
	Status         string
	Result         int
	Amount         string
	ScheduleStatus string
}

func collectionCmd() *cobra.Command {
	var o collectionOptions

	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Post an HMAC signed recurring collection notice",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, _ := cmd.Flags().GetString("base-url")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			req, err := buildCollectionRequest(base, o)
			if err != nil {
				return err
			}
			return send(cmd, req, dryRun)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.Secret, "secret", os.Getenv("ADUMO_WEBHOOK_SECRET"), "Webhook HMAC secret")
	f.StringVar(&o.ScheduleID, "schedule", "", "Gateway schedule id")
	f.StringVar(&o.TxIndex, "tx-index", "1", "Collection transaction index")
	f.StringVar(&o.Status, "status", "SUCCESS", "Collection status text")
	f.IntVar(&o.Result, "result", adumo.ResultSuccess, "Result code")
	f.StringVar(&o.Amount, "amount", "", "Collected amount in rand")
	f.StringVar(&o.ScheduleStatus, "schedule-status", "", "Schedule level status, e.g. CANCELLED")
	_ = cmd.MarkFlagRequired("schedule")

	return cmd
}

func buildCollectionRequest(base string, o collectionOptions) (*http.Request, error) {
	if o.Secret == "" {
		return nil, fmt.Errorf("secret not provided and ADUMO_WEBHOOK_SECRET not set")
	}

	payload := map[string]any{
		"scheduleId":       o.ScheduleID,
		"transactionIndex": o.TxIndex,
		"status":           o.Status,
		"resultCode":       o.Result,
	}
	if o.Amount != "" {
		payload["amount"] = o.Amount
	}
	if o.ScheduleStatus != "" {
		payload["scheduleStatus"] = o.ScheduleStatus
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(base, "/")+"/api/subscription-webhook", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(adumo.SignatureHeader, adumo.SignWebhookBody(o.Secret, body))
	return req, nil
}
