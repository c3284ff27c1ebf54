package analysis

import (
	"sort"

	ingestdomain "github.com/carebill/carebill/internal/ingest/domain"
)

// Tally is one name with its visit count.
type Tally struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Aggregation holds the three independent frequency tallies of an
// import, each ordered by descending count with ties broken by first
// encounter in the input.
type Aggregation struct {
	Clients   []Tally `json:"clients"`
	Employees []Tally `json:"employees"`
	Services  []Tally `json:"services"`
}

// Summary condenses an aggregation into headline numbers.
type Summary struct {
	TotalVisits     int `json:"total_visits"`
	UniqueClients   int `json:"unique_clients"`
	UniqueEmployees int `json:"unique_employees"`
	UniqueServices  int `json:"unique_services"`
}

type counter struct {
	counts map[string]int
	order  map[string]int
	next   int
}

func newCounter() *counter {
	return &counter{
		counts: make(map[string]int),
		order:  make(map[string]int),
	}
}

func (c *counter) add(name string) {
	if name == "" {
		return
	}
	if _, seen := c.counts[name]; !seen {
		c.order[name] = c.next
		c.next++
	}
	c.counts[name]++
}

func (c *counter) tallies() []Tally {
	tallies := make([]Tally, 0, len(c.counts))
	for name, count := range c.counts {
		tallies = append(tallies, Tally{Name: name, Count: count})
	}
	sort.SliceStable(tallies, func(i, j int) bool {
		if tallies[i].Count != tallies[j].Count {
			return tallies[i].Count > tallies[j].Count
		}
		return c.order[tallies[i].Name] < c.order[tallies[j].Name]
	})
	return tallies
}

// Aggregate computes visit frequencies per client, employee and service
// type from cleaned records. It is pure: the input is not modified and
// the same records always produce the same aggregation.
func Aggregate(records []ingestdomain.VisitRecord) Aggregation {
	clients := newCounter()
	employees := newCounter()
	services := newCounter()

	for _, record := range records {
		clients.add(record.ClientName)
		employees.add(record.EmployeeName)
		services.add(record.ServiceType)
	}

	return Aggregation{
		Clients:   clients.tallies(),
		Employees: employees.tallies(),
		Services:  services.tallies(),
	}
}

// Summarize reports the headline numbers of an aggregation. The visit
// total counts client tallies, one visit per retained record.
func Summarize(agg Aggregation) Summary {
	total := 0
	for _, tally := range agg.Clients {
		total += tally.Count
	}
	return Summary{
		TotalVisits:     total,
		UniqueClients:   len(agg.Clients),
		UniqueEmployees: len(agg.Employees),
		UniqueServices:  len(agg.Services),
	}
}

// TopN returns the aggregation truncated to its n highest entries per
// tally. n <= 0 leaves the aggregation untouched.
func TopN(agg Aggregation, n int) Aggregation {
	if n <= 0 {
		return agg
	}
	return Aggregation{
		Clients:   truncate(agg.Clients, n),
		Employees: truncate(agg.Employees, n),
		Services:  truncate(agg.Services, n),
	}
}

func truncate(tallies []Tally, n int) []Tally {
	if len(tallies) <= n {
		return tallies
	}
	return tallies[:n]
}
