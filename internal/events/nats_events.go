// Package events adapts bridge progress notifications onto NATS subjects.
package events

import (
	"bridge-backend/internal/clients"
	"bridge-backend/internal/services"
)

// NATSProgressPublisher forwards transfer progress events to NATS. It
// implements services.ProgressObserver; publish failures are logged by the
// client and never reach the orchestration path.
type NATSProgressPublisher struct {
	client *clients.NATSClient
}

// NewNATSProgressPublisher creates a NATSProgressPublisher.
func NewNATSProgressPublisher(client *clients.NATSClient) *NATSProgressPublisher {
	return &NATSProgressPublisher{client: client}
}

// Notify publishes the stage transition on the transfer progress subject.
func (p *NATSProgressPublisher) Notify(event services.ProgressEvent) {
	p.client.Publish(clients.SubjectTransferProgress, event)
}

// WalletCreatedEvent is the payload published when provisioning completes.
type WalletCreatedEvent struct {
	Email   string                   `json:"email,omitempty"`
	Wallets []services.CreatedWallet `json:"wallets"`
}

// PublishWalletCreated announces a completed provisioning batch.
func (p *NATSProgressPublisher) PublishWalletCreated(event WalletCreatedEvent) {
	p.client.Publish(clients.SubjectWalletCreated, event)
}
