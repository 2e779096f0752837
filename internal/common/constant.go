// Package common contains shared constants and sentinel errors used across
// Quest Board components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// MinQuestAmount is the smallest amount a quest may be posted for.
const MinQuestAmount = 50
