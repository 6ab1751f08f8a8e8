// Command oncal evaluates an OnCalendar-style expression from the
// command line, printing the most recent matching timestamps in
// descending order.
//
//	oncal "Mon *-*-* 09:00:00"
//	oncal --count 5 --timezone Europe/Riga "*-*-01 00:00"
//	oncal --start 2024-01-01T00:00:00Z daily
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/leonixyz/oncalendar/internal/oncalendar"
	"github.com/spf13/pflag"
)

func main() {
	count := pflag.IntP("count", "n", 10, "Number of timestamps to print")
	start := pflag.StringP("start", "s", "", "Start instant (RFC3339), defaults to now")
	timezone := pflag.StringP("timezone", "z", "", "IANA timezone, defaults to local time")
	pflag.Parse()

	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: oncal [flags] <expression>")
		pflag.PrintDefaults()
		os.Exit(2)
	}

	loc := time.Local
	if *timezone != "" {
		l, err := time.LoadLocation(*timezone)
		if err != nil {
			fmt.Fprintf(os.Stderr, "oncal: unknown timezone %q\n", *timezone)
			os.Exit(1)
		}
		loc = l
	}

	from := time.Now().In(loc)
	if *start != "" {
		t, err := time.ParseInLocation(time.RFC3339, *start, loc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "oncal: invalid start time %q, expected RFC3339\n", *start)
			os.Exit(1)
		}
		from = t.In(loc)
	}

	it, err := oncalendar.New(pflag.Arg(0), from)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oncal: %v\n", err)
		os.Exit(1)
	}

	for i := 0; i < *count; i++ {
		t, ok := it.Next()
		if !ok {
			break
		}
		fmt.Println(t.Format(time.RFC3339))
	}
}
