// SPDX-FileCopyrightText: 2023 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

package schemareader

import (
	"fmt"
	"path"
)

// MatchTableName reports whether the table name matches one of the glob patterns, e.g. "tmp_*"
func MatchTableName(tableName string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		matched, err := path.Match(pattern, tableName)
		if err != nil {
			return false, fmt.Errorf("invalid table pattern %q: %w", pattern, err)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

// FilterTableNames drops every table name matching one of the exclude patterns, keeping order
func FilterTableNames(tableNames []string, exclude []string) ([]string, error) {
	result := make([]string, 0, len(tableNames))
	for _, tableName := range tableNames {
		excluded, err := MatchTableName(tableName, exclude)
		if err != nil {
			return nil, err
		}
		if !excluded {
			result = append(result, tableName)
		}
	}
	return result, nil
}
