package handlers

import (
	"strings"

	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/internal/services"
	"github.com/sbpickleball/match_app/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const overviewSheet = "매칭"

var overviewHeader = []interface{}{"매칭 ID", "생성일시 (KST)", "방식", "상태", "A팀", "B팀", "메시지 수"}

// BuildOverviewWorkbook renders one row per match under a header row.
func BuildOverviewWorkbook(rows []services.MatchOverview) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), overviewSheet); err != nil {
		f.Close()
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to prepare export")
	}

	if err := f.SetSheetRow(overviewSheet, "A1", &overviewHeader); err != nil {
		f.Close()
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to write export header")
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to address export row")
		}

		values := []interface{}{
			row.Match.ID,
			row.Match.CreatedAt.In(services.KST).Format("2006-01-02 15:04"),
			row.Match.MatchType,
			row.Match.Status,
			teamNames(row.Match, models.TeamA),
			teamNames(row.Match, models.TeamB),
			row.MessageCount,
		}
		if err := f.SetSheetRow(overviewSheet, cell, &values); err != nil {
			f.Close()
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to write export row")
		}
	}

	return f, nil
}

func teamNames(m models.Match, team string) string {
	var names []string
	for _, p := range m.Participants {
		if p.Team != team {
			continue
		}
		if p.Profile != nil && p.Profile.Nickname != "" {
			names = append(names, p.Profile.Nickname)
		} else {
			names = append(names, p.UserID)
		}
	}
	return strings.Join(names, ", ")
}
