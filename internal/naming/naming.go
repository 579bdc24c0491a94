// Package naming derives temporary restore table names. The timestamp token
// comes from the recovery point, not the wall clock, which is what makes a
// re-run with the same point find and reuse the tables of a prior attempt.
package naming

import (
	"strings"

	"github.com/edwinbulter/quote-lambda-tf/internal/restorepoint"
)

const restoreInfix = "-restore-"

// RestoreTableName returns the temporary table name for originalTable
// restored to point. Pure and deterministic.
func RestoreTableName(originalTable string, point restorepoint.Point) string {
	return originalTable + restoreInfix + point.Token()
}

// RestoreTableNames maps each role of the table set to its restore table.
func RestoreTableNames(tableSet map[string]string, point restorepoint.Point) map[string]string {
	names := make(map[string]string, len(tableSet))
	for role, table := range tableSet {
		names[role] = RestoreTableName(table, point)
	}
	return names
}

// IsRestoreTableOf reports whether candidate is a restore table derived from
// originalTable, at any recovery point.
func IsRestoreTableOf(candidate, originalTable string) bool {
	return strings.HasPrefix(candidate, originalTable+restoreInfix)
}

// StaleRestoreTables filters allTables down to restore tables that belong to
// the given table set but target a different recovery point than current.
// These are leftovers of earlier failed runs and are safe to remove.
func StaleRestoreTables(allTables []string, tableSet map[string]string, current map[string]string) []string {
	currentNames := make(map[string]bool, len(current))
	for _, name := range current {
		currentNames[name] = true
	}

	var stale []string
	for _, candidate := range allTables {
		if currentNames[candidate] {
			continue
		}
		for _, original := range tableSet {
			if IsRestoreTableOf(candidate, original) {
				stale = append(stale, candidate)
				break
			}
		}
	}
	return stale
}
