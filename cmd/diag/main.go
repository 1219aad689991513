// Command diag exercises the trait generator offline and prints role and
// attribute distributions, for tuning the weighted tables before a deploy.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"dwarfclan.game/internal/sim/catalogs"
	"dwarfclan.game/internal/sim/clan"
	"dwarfclan.game/internal/sim/ledger"
	"dwarfclan.game/internal/sim/nft"
	"dwarfclan.game/internal/sim/tuning"
)

func main() {
	var (
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		seed       = flag.Int64("seed", 1337, "clan draw seed")
		samples    = flag.Uint64("n", 10000, "number of trait sets to draw")
	)
	flag.Parse()

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}

	tp := *tuningPath
	if tp == "" {
		tp = *configDir + "/tuning.yaml"
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = tuning.Defaults()
	}

	c := clan.New(clan.FromTuning("diag", *seed, tune), cats, nft.New(), ledger.New(), clan.NewSeededSource(*seed))

	roles := map[string]uint64{}
	attrs := make([]map[uint8]uint64, catalogs.AttrSlots)
	guardAttrs := make([]map[uint8]uint64, catalogs.AttrSlots)
	for i := range attrs {
		attrs[i] = map[uint8]uint64{}
		guardAttrs[i] = map[uint8]uint64{}
	}

	for i := uint64(1); i <= *samples; i++ {
		ts, err := c.SelectTraits(i, clan.ForceNone, clan.NoOverride)
		if err != nil {
			fmt.Fprintln(os.Stderr, "select traits:", err)
			os.Exit(1)
		}
		roles[ts.Role.String()]++
		target := attrs
		if ts.Role == clan.RoleGuardian {
			target = guardAttrs
		}
		for slot, v := range ts.Attributes {
			target[slot][v]++
		}
	}

	fmt.Printf("samples=%d seed=%d\n\nroles:\n", *samples, *seed)
	for _, name := range []string{"TRADER", "GUARDIAN"} {
		n := roles[name]
		fmt.Printf("  %-9s %8d  (%.2f%%)\n", name, n, 100*float64(n)/float64(*samples))
	}

	printSlots("trader", cats.Trader, attrs, roles["TRADER"])
	printSlots("guardian", cats.Guardian, guardAttrs, roles["GUARDIAN"])
}

func printSlots(role string, rt catalogs.RoleTraits, counts []map[uint8]uint64, total uint64) {
	fmt.Printf("\n%s attributes:\n", role)
	for slot, tbl := range rt.Slots {
		fmt.Printf("  slot %d (%s):\n", slot, tbl.Name)
		values := make([]int, 0, len(counts[slot]))
		for v := range counts[slot] {
			values = append(values, int(v))
		}
		sort.Ints(values)
		for _, v := range values {
			n := counts[slot][uint8(v)]
			pct := 0.0
			if total > 0 {
				pct = 100 * float64(n) / float64(total)
			}
			fmt.Printf("    value=%-3d count=%-8d %.2f%%\n", v, n, pct)
		}
	}
}
