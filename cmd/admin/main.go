// Command admin queries a clan's read-model index (index.db) offline:
// claim history, audit trail, snapshot metadata and wallet totals.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	_ "modernc.org/sqlite"
)

func main() {
	var (
		dbPath = flag.String("db", "", "path to index.db")
		wallet = flag.String("wallet", "", "filter by wallet (claims/audit/totals)")
		limit  = flag.Int("limit", 50, "max rows to print")
	)
	flag.Parse()

	if *dbPath == "" || flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: admin -db <index.db> [-wallet W] [-limit N] <claims|audit|snapshots|totals>")
		os.Exit(2)
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open db:", err)
		os.Exit(1)
	}
	defer db.Close()

	switch flag.Arg(0) {
	case "claims":
		err = printClaims(db, *wallet, *limit)
	case "audit":
		err = printAudit(db, *wallet, *limit)
	case "snapshots":
		err = printSnapshots(db, *limit)
	case "totals":
		err = printTotals(db, *wallet)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", flag.Arg(0))
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func tw() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func printClaims(db *sql.DB, wallet string, limit int) error {
	q := `SELECT tick, wallet, asset_id, city_id, role, risky, payout, forfeited
	      FROM claims`
	args := []any{}
	if wallet != "" {
		q += ` WHERE wallet = ?`
		args = append(args, wallet)
	}
	q += ` ORDER BY tick DESC, seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	w := tw()
	fmt.Fprintln(w, "TICK\tWALLET\tASSET\tCITY\tROLE\tRISKY\tPAYOUT\tFORFEITED")
	for rows.Next() {
		var tick, assetID, payout, forfeited uint64
		var cityID, risky int
		var wlt, role string
		if err := rows.Scan(&tick, &wlt, &assetID, &cityID, &role, &risky, &payout, &forfeited); err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\t%d\t%d\t%d\n", tick, wlt, assetID, cityID, role, risky, payout, forfeited)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return w.Flush()
}

func printAudit(db *sql.DB, wallet string, limit int) error {
	q := `SELECT tick, actor, op, asset_id, city_id, amount, COALESCE(detail,'')
	      FROM audits`
	args := []any{}
	if wallet != "" {
		q += ` WHERE actor = ?`
		args = append(args, wallet)
	}
	q += ` ORDER BY tick DESC, seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	w := tw()
	fmt.Fprintln(w, "TICK\tACTOR\tOP\tASSET\tCITY\tAMOUNT\tDETAIL")
	for rows.Next() {
		var tick, assetID, amount uint64
		var cityID int
		var actor, op, detail string
		if err := rows.Scan(&tick, &actor, &op, &assetID, &cityID, &amount, &detail); err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n", tick, actor, op, assetID, cityID, amount, detail)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return w.Flush()
}

func printSnapshots(db *sql.DB, limit int) error {
	rows, err := db.Query(`SELECT tick, path, seed, traits, positions, cities, invests
	                       FROM snapshots ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return err
	}
	defer rows.Close()

	w := tw()
	fmt.Fprintln(w, "TICK\tPATH\tSEED\tTRAITS\tPOSITIONS\tCITIES\tINVESTS")
	for rows.Next() {
		var tick uint64
		var seed int64
		var traits, positions, cities, invests int
		var path string
		if err := rows.Scan(&tick, &path, &seed, &traits, &positions, &cities, &invests); err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\t%d\n", tick, path, seed, traits, positions, cities, invests)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return w.Flush()
}

func printTotals(db *sql.DB, wallet string) error {
	if wallet == "" {
		return fmt.Errorf("totals requires -wallet")
	}
	var payout, forfeited uint64
	row := db.QueryRow(`SELECT COALESCE(SUM(payout),0), COALESCE(SUM(forfeited),0) FROM claims WHERE wallet = ?`, wallet)
	if err := row.Scan(&payout, &forfeited); err != nil {
		return err
	}
	fmt.Printf("wallet=%s payout=%d forfeited=%d\n", wallet, payout, forfeited)
	return nil
}
