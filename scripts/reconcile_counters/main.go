// Command reconcile_counters recomputes the denormalized enrollment and
// waitlist counters on offerings from the enrollments table and reports any
// drift. With -fix it rewrites the stored counters to the recomputed values.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/config"
	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/database"
)

type drift struct {
	OfferingID       string `db:"offering_id"`
	Title            string `db:"title"`
	StoredEnrolled   int    `db:"stored_enrolled"`
	ActualEnrolled   int    `db:"actual_enrolled"`
	StoredWaitlisted int    `db:"stored_waitlisted"`
	ActualWaitlisted int    `db:"actual_waitlisted"`
}

func main() {
	var (
		fix     bool
		timeout time.Duration
	)
	flag.BoolVar(&fix, "fix", false, "rewrite drifted counters to recomputed values")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "query timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	const query = `SELECT o.id AS offering_id, o.title,
        o.current_enrollment AS stored_enrolled,
        COALESCE(e.enrolled, 0) AS actual_enrolled,
        o.waitlist_count AS stored_waitlisted,
        COALESCE(e.waitlisted, 0) AS actual_waitlisted
        FROM offerings o
        LEFT JOIN (
            SELECT offering_id,
                COUNT(*) FILTER (WHERE status = 'ENROLLED') AS enrolled,
                COUNT(*) FILTER (WHERE status = 'WAITLISTED') AS waitlisted
            FROM enrollments GROUP BY offering_id
        ) e ON e.offering_id = o.id
        WHERE o.current_enrollment <> COALESCE(e.enrolled, 0)
           OR o.waitlist_count <> COALESCE(e.waitlisted, 0)
        ORDER BY o.title`

	var drifted []drift
	if err := db.SelectContext(ctx, &drifted, query); err != nil {
		log.Fatalf("failed to scan for drift: %v", err)
	}

	if len(drifted) == 0 {
		fmt.Println("counters consistent, nothing to do")
		return
	}

	for _, d := range drifted {
		fmt.Printf("%s (%s): enrolled %d->%d, waitlisted %d->%d\n",
			d.Title, d.OfferingID,
			d.StoredEnrolled, d.ActualEnrolled,
			d.StoredWaitlisted, d.ActualWaitlisted)
	}

	if !fix {
		fmt.Printf("%d offerings drifted; rerun with -fix to repair\n", len(drifted))
		os.Exit(1)
	}

	const repair = `UPDATE offerings SET current_enrollment = $2, waitlist_count = $3, updated_at = NOW()
        WHERE id = $1`
	for _, d := range drifted {
		if _, err := db.ExecContext(ctx, repair, d.OfferingID, d.ActualEnrolled, d.ActualWaitlisted); err != nil {
			log.Fatalf("failed to repair %s: %v", d.OfferingID, err)
		}
	}
	fmt.Printf("repaired %d offerings\n", len(drifted))
}
