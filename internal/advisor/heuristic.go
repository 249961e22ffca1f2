// internal/advisor/heuristic.go
package advisor

// threshold is one row of the admission heuristic. A zero bound is not checked.
type threshold struct {
	Major   string
	GPA     float64
	GAT     float64
	Tahsili float64
}

// heuristicTable is ordered from most to least selective; the first satisfied row wins.
var heuristicTable = []threshold{
	{"General Doctor", 95, 90, 90},
	{"Dentistry", 93, 88, 88},
	{"Pharmacy", 92, 85, 85},
	{"Mechanical Engineer", 85, 80, 80},
	{"Electrical Engineer", 85, 80, 80},
	{"Computer Science", 85, 80, 75},
	{"Cybersecurity", 85, 80, 75},
	{"Data Science", 85, 80, 75},
	{"Nursing", 80, 70, 0},
	{"Business Administration", 75, 70, 0},
	{"Finance", 75, 70, 0},
	{"Accounting", 75, 70, 0},
	{"Law", 70, 0, 0},
	{"English Literature", 70, 0, 0},
	{"Sharia", 65, 0, 0},
	{"Humanities", 60, 0, 0},
}

const fallbackMajor = "Humanities"

// Heuristic picks a major from fixed Saudi admission cut-offs.
func Heuristic(gpa, gat, tahsili float64) string {
	for _, row := range heuristicTable {
		if gpa >= row.GPA && gat >= row.GAT && tahsili >= row.Tahsili {
			return row.Major
		}
	}
	return fallbackMajor
}
