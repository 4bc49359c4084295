// Package rules is the access guard for direct document writes. It is a
// deliberately coarse, declarative layer: public collections are readable by
// anyone, a player may create and patch only their own player document (and
// only its name fields), and every structurally complex mutation (rosters,
// captaincy, team references, offer status) is denied here so it can only
// happen through the team operations. Fine-grained invariants live in those
// operations, not in this table.
package rules

import (
	"github.com/leagueforge/leago/pkg/apperr"
)

// Operation is the kind of direct access being attempted.
type Operation string

const (
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Collection names as exposed to direct access.
const (
	CollectionPlayers     = "players"
	CollectionTeams       = "teams"
	CollectionOffers      = "offers"
	CollectionSeasons     = "seasons"
	CollectionMemberships = "season_memberships"
	CollectionGames       = "games"
	CollectionStandings   = "standings"
)

// Request describes one attempted direct access. Ownership is expressed in
// identity-provider subjects because the players collection is keyed by
// identity, and a create happens before any player row exists.
type Request struct {
	Collection string
	Operation  Operation
	// AuthSubject is the caller's identity subject, empty when unauthenticated.
	AuthSubject string
	// OwnerSubject is the identity subject owning the target document, when
	// the collection has a per-player owner.
	OwnerSubject string
	// Fields lists the document fields a create/update touches.
	Fields []string
}

// Rule is the per-collection policy.
type Rule struct {
	PublicRead bool
	// OwnerCreate permits a caller to create a document they own.
	OwnerCreate bool
	// OwnerWritableFields is the set of fields the owner may patch directly.
	// Empty means no direct updates at all.
	OwnerWritableFields []string
}

// Ruleset maps collection name to its policy.
type Ruleset map[string]Rule

// Default returns the production ruleset.
func Default() Ruleset {
	return Ruleset{
		CollectionSeasons:   {PublicRead: true},
		CollectionStandings: {PublicRead: true},
		CollectionGames:     {PublicRead: true},
		CollectionTeams:     {PublicRead: true},
		CollectionPlayers: {
			PublicRead:          true,
			OwnerCreate:         true,
			OwnerWritableFields: []string{"first_name", "last_name"},
		},
		// Memberships and offers are only ever written by the team
		// operations; they are not even publicly readable.
		CollectionMemberships: {},
		CollectionOffers:      {},
	}
}

// Allow evaluates a direct-access request against the ruleset. A nil return
// means the access is permitted.
func (rs Ruleset) Allow(req Request) error {
	rule, ok := rs[req.Collection]
	if !ok {
		return apperr.Newf(apperr.KindPermissionDenied, "unknown collection %q", req.Collection)
	}

	switch req.Operation {
	case OpRead:
		if rule.PublicRead {
			return nil
		}
		return apperr.Newf(apperr.KindPermissionDenied, "collection %q is not readable directly", req.Collection)

	case OpCreate:
		if !rule.OwnerCreate {
			return apperr.Newf(apperr.KindPermissionDenied, "collection %q cannot be created directly; use the team operations", req.Collection)
		}
		if req.AuthSubject == "" {
			return apperr.New(apperr.KindPermissionDenied, "authentication required")
		}
		if req.AuthSubject != req.OwnerSubject {
			return apperr.New(apperr.KindPermissionDenied, "players may only create their own document")
		}
		// Creation payloads are built server-side from identity claims, so
		// there is no field list to police here.
		return nil

	case OpUpdate:
		if len(rule.OwnerWritableFields) == 0 {
			return apperr.Newf(apperr.KindPermissionDenied, "collection %q cannot be modified directly; use the team operations", req.Collection)
		}
		if req.AuthSubject == "" {
			return apperr.New(apperr.KindPermissionDenied, "authentication required")
		}
		if req.AuthSubject != req.OwnerSubject {
			return apperr.New(apperr.KindPermissionDenied, "players may only modify their own document")
		}
		return checkFields(rule, req)

	case OpDelete:
		return apperr.Newf(apperr.KindPermissionDenied, "collection %q cannot be deleted directly", req.Collection)

	default:
		return apperr.Newf(apperr.KindInvalidArgument, "unknown operation %q", req.Operation)
	}
}

func checkFields(rule Rule, req Request) error {
	if len(req.Fields) == 0 {
		return apperr.New(apperr.KindInvalidArgument, "no fields in write")
	}
	for _, f := range req.Fields {
		if !contains(rule.OwnerWritableFields, f) {
			return apperr.Newf(apperr.KindPermissionDenied, "field %q is not writable directly", f)
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
