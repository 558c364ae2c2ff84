package teamcontext

import (
	"context"
	"strings"
)

// TeamContextKey is the context key for the active team ID.
type TeamContextKey struct{}

// WithTeamID stores the team ID in the context.
func WithTeamID(ctx context.Context, teamID string) context.Context {
	return context.WithValue(ctx, TeamContextKey{}, strings.TrimSpace(teamID))
}

// TeamIDFromContext returns the team ID from context, if set.
func TeamIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	teamID, ok := ctx.Value(TeamContextKey{}).(string)
	if !ok || teamID == "" {
		return "", false
	}
	return teamID, true
}
