package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

// -----------------------------------------------------------------------------
// backup
// -----------------------------------------------------------------------------

type backupCmd struct {
	dir string
}

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "copy the database to a timestamped backup file" }
func (*backupCmd) Usage() string {
	return `backup [-dir path]

Checkpoints the WAL and copies the database file into the backup
directory as finance_YYYYMMDD_HHMMSS.db. -dir overrides the configured
backup directory.
`
}

func (c *backupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "Target directory (default from configuration)")
}

func (c *backupCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		return fail("%v", err)
	}
	defer a.Close()

	dir := c.dir
	if dir == "" {
		dir = a.Config.Database.BackupDir
	}

	path, err := a.Store.Backup(dir)
	if err != nil {
		return fail("backup failed: %v", err)
	}

	fmt.Printf("Backup written to %s\n", path)
	return subcommands.ExitSuccess
}

// -----------------------------------------------------------------------------
// vacuum
// -----------------------------------------------------------------------------

type vacuumCmd struct{}

func (*vacuumCmd) Name() string     { return "vacuum" }
func (*vacuumCmd) Synopsis() string { return "compact the database and refresh planner statistics" }
func (*vacuumCmd) Usage() string {
	return `vacuum

Runs VACUUM followed by ANALYZE on the database file.
`
}

func (*vacuumCmd) SetFlags(f *flag.FlagSet) {}

func (c *vacuumCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		return fail("%v", err)
	}
	defer a.Close()

	if err := a.Store.Vacuum(); err != nil {
		return fail("vacuum failed: %v", err)
	}

	fmt.Println("Database compacted")
	return subcommands.ExitSuccess
}
