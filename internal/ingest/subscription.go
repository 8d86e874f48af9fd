package ingest

import (
	"context"

	"github.com/chanwatch/chanwatch/internal/repository"
	"github.com/chanwatch/chanwatch/internal/telegram"
)

func subscribedKey(identifier string) string {
	return identifier + ":subscribed"
}

// ensureSubscribed makes sure the acting account is a member of the entity
// before any read is attempted. The subscribed fact is cached write-once, so
// steady state costs one cursor-store read. Returns false when the entity
// must be skipped for this pass.
func (s *Service) ensureSubscribed(ctx context.Context, identifier string) bool {
	cached, err := s.cursors.GetBool(subscribedKey(identifier))
	if err != nil {
		s.log.Error().Err(err).Str("identifier", identifier).Msg("ingest: subscription flag read failed")
		return false
	}
	if cached {
		return true
	}

	member, err := s.provider.CheckMembership(ctx, identifier)
	if err != nil {
		s.log.Error().Err(err).Str("identifier", identifier).Msg("ingest: membership check failed")
		return false
	}
	if member {
		s.markSubscribed(identifier)
		return true
	}

	outcome, err := s.provider.JoinChannel(ctx, identifier)
	switch outcome {
	case telegram.JoinOK, telegram.JoinAlreadyMember:
		s.log.Info().Str("identifier", identifier).Stringer("outcome", outcome).Msg("ingest: subscribed")
		s.markSubscribed(identifier)
		return true
	case telegram.JoinInviteExpired:
		s.log.Warn().Str("identifier", identifier).Msg("ingest: invite link expired")
	case telegram.JoinPrivate:
		s.log.Warn().Str("identifier", identifier).Msg("ingest: entity is private or does not exist")
	default:
		s.log.Error().Err(err).Str("identifier", identifier).Msg("ingest: join failed")
	}
	return false
}

// handleInvite processes an invite-hash identifier: joins via the invite,
// then resolves the hash to a permanent identifier. Returns false when the
// entity was dropped or must be skipped for this pass; on success
// ch.Identifier holds the adopted permanent identifier.
func (s *Service) handleInvite(ctx context.Context, ch *repository.MonitoredChannel, result *PassResult) bool {
	hash := ch.Identifier

	subscribed, err := s.cursors.GetBool(subscribedKey(hash))
	if err != nil {
		s.log.Error().Err(err).Str("invite", hash).Msg("ingest: subscription flag read failed")
		return false
	}
	if !subscribed {
		outcome, err := s.provider.ImportInvite(ctx, hash)
		switch outcome {
		case telegram.JoinOK, telegram.JoinAlreadyMember:
			s.log.Info().Str("invite", hash).Stringer("outcome", outcome).Msg("ingest: joined via invite")
			s.markSubscribed(hash)
			subscribed = true
		default:
			s.log.Warn().Err(err).Str("invite", hash).Stringer("outcome", outcome).Msg("ingest: invite import failed")
		}
	}

	check, err := s.provider.CheckInvite(ctx, hash)
	if err != nil {
		s.log.Error().Err(err).Str("invite", hash).Msg("ingest: invite check failed")
		return false
	}

	switch check.Status {
	case telegram.InviteResolvable:
		if err := s.channels.UpdateIdentifier(ctx, ch.ID, check.Identifier); err != nil {
			s.log.Error().Err(err).Str("invite", hash).Msg("ingest: identifier rewrite failed")
			return false
		}
		s.log.Info().
			Str("invite", hash).
			Str("identifier", check.Identifier).
			Msg("ingest: invite resolved to permanent identifier")
		ch.Identifier = check.Identifier
	case telegram.InviteAlreadyMember:
		s.log.Info().Str("invite", hash).Msg("ingest: invite gives no permanent id, dropping entity")
		s.dropEntity(ctx, ch, result)
		return false
	case telegram.InviteExpired:
		s.log.Warn().Str("invite", hash).Msg("ingest: invite expired, dropping entity")
		s.dropEntity(ctx, ch, result)
		return false
	}

	return subscribed
}

func (s *Service) markSubscribed(identifier string) {
	if err := s.cursors.SetBool(subscribedKey(identifier), true); err != nil {
		s.log.Warn().Err(err).Str("identifier", identifier).Msg("ingest: subscription flag write failed")
	}
}

func (s *Service) dropEntity(ctx context.Context, ch *repository.MonitoredChannel, result *PassResult) {
	if err := s.channels.Delete(ctx, ch.ID); err != nil {
		s.log.Error().Err(err).Str("identifier", ch.Identifier).Msg("ingest: failed to drop entity")
		result.Errors++
		return
	}
	result.Dropped++
}
