package export

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"

	"github.com/limaJavier/slotplanner/pkg/model"
)

const listSeparator = ";"

// Row is one allocation flattened for tabular output. End is exclusive.
type Row struct {
	GroupId  uint64 `csv:"group_id"`
	Day      uint64 `csv:"day"`
	Start    uint64 `csv:"start"`
	End      uint64 `csv:"end"`
	Rooms    string `csv:"room_ids"`
	Teachers string `csv:"teacher_ids"`
}

// Rows flattens allocations sorted by day, start slot and group. Teachers are looked up in problem
// and left blank for unknown groups.
func Rows(problem *model.Problem, allocations []model.Allocation) []Row {
	rows := lo.Map(allocations, func(allocation model.Allocation, _ int) Row {
		start, length, _ := allocation.Span()
		row := Row{
			GroupId: allocation.GroupId,
			Day:     allocation.Day,
			Start:   start,
			End:     start + length,
			Rooms:   joinIds(allocation.RoomIds),
		}
		if group, ok := problem.Groups[allocation.GroupId]; ok {
			row.Teachers = joinIds(group.TeacherIds)
		}
		return row
	})

	slices.SortFunc(rows, func(a, b Row) int {
		return cmp.Or(cmp.Compare(a.Day, b.Day), cmp.Compare(a.Start, b.Start), cmp.Compare(a.GroupId, b.GroupId))
	})
	return rows
}

func WriteCSV(out io.Writer, rows []Row) error {
	if err := gocsv.Marshal(&rows, out); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// ReadAllocations parses rows written by WriteCSV back into allocations
func ReadAllocations(in io.Reader) ([]model.Allocation, error) {
	var rows []Row
	if err := gocsv.Unmarshal(in, &rows); err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	allocations := make([]model.Allocation, 0, len(rows))
	for index, row := range rows {
		if row.End <= row.Start {
			return nil, fmt.Errorf("row %v: end slot %v must be greater than start slot %v", index+1, row.End, row.Start)
		}
		roomIds, err := splitIds(row.Rooms)
		if err != nil {
			return nil, fmt.Errorf("row %v: %w", index+1, err)
		}
		slots := lo.RangeFrom(row.Start, int(row.End-row.Start))
		allocation, err := model.NewAllocation(row.GroupId, roomIds, row.Day, slots)
		if err != nil {
			return nil, fmt.Errorf("row %v: %w", index+1, err)
		}
		allocations = append(allocations, allocation)
	}
	return allocations, nil
}

func joinIds(ids []uint64) string {
	return strings.Join(lo.Map(ids, func(id uint64, _ int) string { return strconv.FormatUint(id, 10) }), listSeparator)
}

func splitIds(value string) ([]uint64, error) {
	if strings.TrimSpace(value) == "" {
		return []uint64{}, nil
	}
	ids := make([]uint64, 0)
	for _, field := range strings.Split(value, listSeparator) {
		id, err := strconv.ParseUint(strings.TrimSpace(field), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", field)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
