package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	ingestdomain "github.com/carebill/carebill/internal/ingest/domain"
)

func visit(client, employee, service string) ingestdomain.VisitRecord {
	return ingestdomain.VisitRecord{ClientName: client, EmployeeName: employee, ServiceType: service}
}

func TestAggregateCountsIndependently(t *testing.T) {
	agg := Aggregate([]ingestdomain.VisitRecord{
		visit("Mary Smith", "Jane Doe", "Personal Care"),
		visit("Mary Smith", "Kim Park", "Personal Care"),
		visit("Tom Brown", "Jane Doe", "Home Health - Nursing"),
	})

	require.Equal(t, []Tally{
		{Name: "Mary Smith", Count: 2},
		{Name: "Tom Brown", Count: 1},
	}, agg.Clients)
	require.Equal(t, []Tally{
		{Name: "Jane Doe", Count: 2},
		{Name: "Kim Park", Count: 1},
	}, agg.Employees)
	require.Equal(t, []Tally{
		{Name: "Personal Care", Count: 2},
		{Name: "Home Health - Nursing", Count: 1},
	}, agg.Services)
}

func TestAggregateTieOrderIsFirstEncounter(t *testing.T) {
	agg := Aggregate([]ingestdomain.VisitRecord{
		visit("Zoe", "E1", "S1"),
		visit("Amy", "E2", "S2"),
		visit("Zoe", "E1", "S1"),
		visit("Amy", "E2", "S2"),
	})

	require.Equal(t, []Tally{
		{Name: "Zoe", Count: 2},
		{Name: "Amy", Count: 2},
	}, agg.Clients)
}

func TestAggregateIsOrderAssociativeAcrossFiles(t *testing.T) {
	fileA := []ingestdomain.VisitRecord{
		visit("Mary Smith", "Jane Doe", "Personal Care"),
		visit("Tom Brown", "Jane Doe", "Personal Care"),
	}
	fileB := []ingestdomain.VisitRecord{
		visit("Mary Smith", "Kim Park", "Home Health - Nursing"),
	}

	combined := Aggregate(append(append([]ingestdomain.VisitRecord{}, fileA...), fileB...))
	require.Equal(t, 2, combinedCount(combined.Clients, "Mary Smith"))
	require.Equal(t, 1, combinedCount(combined.Clients, "Tom Brown"))
	require.Equal(t, 2, combinedCount(combined.Employees, "Jane Doe"))
	require.Equal(t, 2, combinedCount(combined.Services, "Personal Care"))
}

func combinedCount(tallies []Tally, name string) int {
	for _, tally := range tallies {
		if tally.Name == name {
			return tally.Count
		}
	}
	return 0
}

func TestAggregateEmptyInput(t *testing.T) {
	agg := Aggregate(nil)
	require.Empty(t, agg.Clients)
	require.Empty(t, agg.Employees)
	require.Empty(t, agg.Services)
}

func TestSummarize(t *testing.T) {
	agg := Aggregate([]ingestdomain.VisitRecord{
		visit("Mary Smith", "Jane Doe", "Personal Care"),
		visit("Mary Smith", "Kim Park", "Personal Care"),
		visit("Tom Brown", "Jane Doe", "Home Health - Nursing"),
	})

	summary := Summarize(agg)
	require.Equal(t, 3, summary.TotalVisits)
	require.Equal(t, 2, summary.UniqueClients)
	require.Equal(t, 2, summary.UniqueEmployees)
	require.Equal(t, 2, summary.UniqueServices)
}

func TestTopN(t *testing.T) {
	agg := Aggregate([]ingestdomain.VisitRecord{
		visit("A", "E1", "S1"),
		visit("A", "E1", "S1"),
		visit("B", "E2", "S2"),
		visit("C", "E3", "S3"),
	})

	top := TopN(agg, 2)
	require.Len(t, top.Clients, 2)
	require.Equal(t, "A", top.Clients[0].Name)

	all := TopN(agg, 0)
	require.Len(t, all.Clients, 3)
}
