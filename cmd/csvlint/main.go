// Command csvlint checks CSV files for structural problems.
//
//	csvlint validate data.csv other.csv
//	csvlint validate --separator tab --format json - < export.tsv
//	csvlint profile check profiles/*.json
package main

func main() {
	Execute()
}
