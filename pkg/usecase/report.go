package usecase

import (
	"context"

	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

// ReportStats aggregates outcomes over a set of actions. Only actions
// with a recorded result contribute to the per-user counters.
type ReportStats struct {
	TotalActions     int
	CompletedActions int
	Victories        int
	Defeats          int
	Inactivities     int

	ParticipationCount map[types.UserID]int
	VictoryCount       map[types.UserID]int
	CoordinatorCount   map[types.UserID]int
	RoleACount         map[types.UserID]int
	RoleBCount         map[types.UserID]int
}

// BuildReportStats computes statistics over the given actions
func BuildReportStats(actions []*model.Action) *ReportStats {
	stats := &ReportStats{
		TotalActions:       len(actions),
		ParticipationCount: make(map[types.UserID]int),
		VictoryCount:       make(map[types.UserID]int),
		CoordinatorCount:   make(map[types.UserID]int),
		RoleACount:         make(map[types.UserID]int),
		RoleBCount:         make(map[types.UserID]int),
	}

	for _, action := range actions {
		if !action.HasResult() {
			continue
		}

		stats.CompletedActions++

		switch action.Status {
		case types.ActionStatusVictory:
			stats.Victories++
		case types.ActionStatusDefeat:
			stats.Defeats++
		case types.ActionStatusInactive:
			stats.Inactivities++
		}

		for _, participantID := range action.ParticipantIDs {
			stats.ParticipationCount[participantID]++
			if action.Status == types.ActionStatusVictory {
				stats.VictoryCount[participantID]++
			}
		}

		if !action.CoordinatorID.Empty() {
			stats.CoordinatorCount[action.CoordinatorID]++
		}
		if !action.RoleAID.Empty() {
			stats.RoleACount[action.RoleAID]++
		}
		if !action.RoleBID.Empty() {
			stats.RoleBCount[action.RoleBID]++
		}
	}

	return stats
}

// PeriodReport aggregates a group's history over the last days*24 hours
func (r *Registry) PeriodReport(ctx context.Context, groupID types.GroupID, days int) (*ReportStats, error) {
	history, err := r.LoadHistory(ctx, days)
	if err != nil {
		return nil, err
	}

	var groupActions []*model.Action
	for _, action := range history {
		if action.GroupID == groupID {
			groupActions = append(groupActions, action)
		}
	}

	return BuildReportStats(groupActions), nil
}
