package clickhouse

import "fmt"

// ScoreSchema returns the DDL for the score history table. Rows are keyed by
// (job, subject, date); ReplacingMergeTree keeps the latest version, which
// mirrors the last-write-wins rule of the on-disk history files.
func ScoreSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.scores (
    job          LowCardinality(String),
    subject      String,
    date         Date,
    score        Float64,
    value        Float64,
    label        String,
    generated_at DateTime64(3)
) ENGINE = ReplacingMergeTree(generated_at)
ORDER BY (job, subject, date)`, database),
	}
}
