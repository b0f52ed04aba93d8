package services

import (
	"time"
)

// TransferStage names the bridge state machine stages in order.
type TransferStage string

const (
	StageBurn        TransferStage = "burn"
	StageAttestation TransferStage = "attestation"
	StageMint        TransferStage = "mint"
	StageComplete    TransferStage = "complete"
)

// TransferStatus in-memory transfer attempt lifecycle
type TransferStatus string

const (
	TransferStatusBurnSubmitted       TransferStatus = "burn-submitted"
	TransferStatusBurnConfirmed       TransferStatus = "burn-confirmed"
	TransferStatusAttestationPending  TransferStatus = "attestation-pending"
	TransferStatusAttestationComplete TransferStatus = "attestation-complete"
	TransferStatusMintSubmitted       TransferStatus = "mint-submitted"
	TransferStatusMintConfirmed       TransferStatus = "mint-confirmed"
	TransferStatusFailed              TransferStatus = "failed"
)

// ProgressEvent is a stage-transition notification. Advisory only.
type ProgressEvent struct {
	TransferID string        `json:"transfer_id"`
	Stage      TransferStage `json:"stage"`
	Chain      string        `json:"chain,omitempty"`
	TxHash     string        `json:"tx_hash,omitempty"`
	Detail     string        `json:"detail,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

// ProgressObserver receives stage transitions. Implementations must not
// block; notification must never be required for correctness.
type ProgressObserver interface {
	Notify(event ProgressEvent)
}

// MultiObserver fans one event out to several observers.
type MultiObserver []ProgressObserver

func (m MultiObserver) Notify(event ProgressEvent) {
	for _, observer := range m {
		if observer != nil {
			observer.Notify(event)
		}
	}
}
