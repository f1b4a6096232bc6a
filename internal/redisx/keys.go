package redisx

import "time"

const (
	// Cached order status: order_status:{order_id} -> {"order_id": "...", "status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Idempotency claim: idem:{scope}:{client key} -> result reference
	KeyIdempotency = "idem:%s:%s"

	// Revoked refresh token: auth:revoked:{jti}
	KeyRevokedToken = "auth:revoked:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

const claimAttempts = 3

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)

// Idempotency scopes.
const (
	ScopePaymentCreate = "payment:create"
	ScopeGatewayCharge = "payment:charge"
)
