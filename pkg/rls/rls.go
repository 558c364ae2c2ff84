package rls

import "gorm.io/gorm"

// WithTeam scopes the current postgres transaction to a team so row-level
// security policies keyed on app.current_team_id apply. It must run inside
// a transaction; other dialects are left untouched.
func WithTeam(tx *gorm.DB, teamID string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT set_config('app.current_team_id', ?, true)", teamID).Error
}
