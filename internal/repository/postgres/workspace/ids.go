package workspace

import (
	"context"

	"github.com/parkyoonha/searchedia-sub001/internal/domain/repositories"
	"github.com/parkyoonha/searchedia-sub001/internal/repository/postgres"
)

func listIDs(ctx context.Context, executor repositories.DBTX, query, userID, kind string) ([]string, error) {
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, postgres.Classify("list "+kind+" ids", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, postgres.Classify("scan "+kind+" id", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, postgres.Classify("iterate "+kind+" ids", err)
	}

	return ids, nil
}
