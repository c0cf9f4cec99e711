// Command forestutil is a small CLI for poking at a forest snapshot on
// disk: adding leaves, removing them, listing roots, committing, and
// producing or checking batch proofs. Grounded on the teacher's cmd/ layout
// (cmd/csn, cmd/ibdsim and friends each being their own small main
// package) and its declared-but-unused go-flags/logrotate dependencies,
// which this command is the first thing in the tree to actually call.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"
	"github.com/jrick/logrotate/rotator"

	"github.com/hashforest/utreexo/config"
	"github.com/hashforest/utreexo/forest"
	"github.com/hashforest/utreexo/forestlog"
)

var (
	log       = forestlog.Disabled().Tool
	forestLog = forestlog.Disabled().Forest
)

type options struct {
	DataDir  string `short:"d" long:"datadir" description:"directory holding the forest snapshot and logs"`
	MaxNodes int    `long:"maxnodes" description:"max simultaneously open node handles during Remove"`
}

var opts options

func main() {
	opts.DataDir = config.DefaultConfig.DataDir
	opts.MaxNodes = config.DefaultConfig.MaxNodes

	parser := flags.NewParser(&opts, flags.Default)
	parser.AddCommand("add", "add leaves", "Add one or more hex-encoded 32-byte leaves to the forest.", &addCmd{})
	parser.AddCommand("remove", "remove leaves", "Remove leaves at the given row-0 positions.", &removeCmd{})
	parser.AddCommand("roots", "print roots", "Print the current root hashes, tallest tree first.", &rootsCmd{})
	parser.AddCommand("prove", "prove leaves", "Print a serialized batch proof for the given hex-encoded leaf hashes.", &proveCmd{})
	parser.AddCommand("commit", "flush snapshot", "Force a snapshot commit to disk without further changes.", &commitCmd{})
	parser.AddCommand("verify", "verify a proof", "Check a hex-encoded batch proof against the current roots: <proof> <leaf-hash>...", &verifyCmd{})

	// Commands run inside parser.Parse, so read the global options once
	// beforehand; otherwise setupLogging would ignore --datadir.
	_, _ = flags.NewParser(&opts, flags.IgnoreUnknown).Parse()

	if r, err := setupLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "log setup: %v\n", err)
		os.Exit(1)
	} else {
		defer r.Close()
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func setupLogging() (*rotator.Rotator, error) {
	cfg := *config.DefaultConfig
	cfg.DataDir = opts.DataDir
	if err := os.MkdirAll(filepath.Join(cfg.DataDir, "logs"), 0o700); err != nil {
		return nil, err
	}
	logFile := filepath.Join(cfg.DataDir, "logs", "forestutil.log")
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return nil, err
	}
	loggers := forestlog.New(r, 0)
	loggers.Forest.SetLevel(2) // info
	log = loggers.Tool
	forestLog = loggers.Forest
	return r, nil
}

func openForest() (*forest.Forest, error) {
	if err := os.MkdirAll(opts.DataDir, 0o700); err != nil {
		return nil, err
	}
	cfg := *config.DefaultConfig
	cfg.DataDir = opts.DataDir
	f, err := forest.Open(cfg.SnapshotPath(), opts.MaxNodes)
	if err != nil {
		return nil, err
	}
	f.SetLogger(forestLog)
	return f, nil
}

func parseHashes(args []string) ([]forest.Hash, error) {
	out := make([]forest.Hash, len(args))
	for i, a := range args {
		b, err := hex.DecodeString(a)
		if err != nil {
			return nil, fmt.Errorf("leaf %d: %w", i, err)
		}
		if len(b) != 32 {
			return nil, fmt.Errorf("leaf %d: want 32 bytes, got %d", i, len(b))
		}
		copy(out[i][:], b)
	}
	return out, nil
}

type addCmd struct{}

func (c *addCmd) Execute(args []string) error {
	hashes, err := parseHashes(args)
	if err != nil {
		return err
	}
	f, err := openForest()
	if err != nil {
		return err
	}
	defer f.Close()

	leaves := make([]forest.Leaf, len(hashes))
	for i, h := range hashes {
		leaves[i] = forest.Leaf{Hash: h, Remember: true}
	}
	if err := f.Add(leaves); err != nil {
		return err
	}
	log.Infof("added %d leaves, %d total", len(leaves), f.NumLeaves())
	fmt.Printf("added %d leaves, %d total\n", len(leaves), f.NumLeaves())
	return nil
}

type removeCmd struct{}

func (c *removeCmd) Execute(args []string) error {
	positions := make([]uint64, len(args))
	for i, a := range args {
		var pos uint64
		if _, err := fmt.Sscanf(a, "%d", &pos); err != nil {
			return fmt.Errorf("position %d: %w", i, err)
		}
		positions[i] = pos
	}
	f, err := openForest()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Remove(positions); err != nil {
		return err
	}
	log.Infof("removed %d leaves, %d remain", len(positions), f.NumLeaves())
	fmt.Printf("removed %d leaves, %d remain\n", len(positions), f.NumLeaves())
	return nil
}

type rootsCmd struct{}

func (c *rootsCmd) Execute(args []string) error {
	f, err := openForest()
	if err != nil {
		return err
	}
	defer f.Close()

	roots, err := f.Roots()
	if err != nil {
		return err
	}
	for _, r := range roots {
		fmt.Println(hex.EncodeToString(r[:]))
	}
	return nil
}

type proveCmd struct{}

func (c *proveCmd) Execute(args []string) error {
	hashes, err := parseHashes(args)
	if err != nil {
		return err
	}
	f, err := openForest()
	if err != nil {
		return err
	}
	defer f.Close()

	proof, err := f.Prove(hashes)
	if err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(proof.Serialize()))
	return nil
}

type commitCmd struct{}

func (c *commitCmd) Execute(args []string) error {
	f, err := openForest()
	if err != nil {
		return err
	}
	n := f.NumLeaves()
	if err := f.Close(); err != nil {
		return err
	}
	log.Infof("committed snapshot, %d leaves", n)
	fmt.Printf("committed snapshot, %d leaves\n", n)
	return nil
}

type verifyCmd struct{}

func (c *verifyCmd) Execute(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("verify: need a hex-encoded proof followed by the leaf hashes it covers")
	}
	proofBytes, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("proof: %w", err)
	}
	bp, err := forest.DeserializeBatchProof(proofBytes)
	if err != nil {
		return err
	}
	hashes, err := parseHashes(args[1:])
	if err != nil {
		return err
	}
	if len(hashes) != len(bp.Targets) {
		return fmt.Errorf("verify: proof covers %d targets, got %d leaf hashes", len(bp.Targets), len(hashes))
	}

	f, err := openForest()
	if err != nil {
		return err
	}
	defer f.Close()

	roots, err := f.Roots()
	if err != nil {
		return err
	}
	ok, err := forest.VerifyProof(roots, f.NumLeaves(), bp.Targets, hashes, bp.Proof, forest.DefaultHasher)
	if err != nil {
		return err
	}
	log.Infof("verify: %v", ok)
	if !ok {
		fmt.Println("invalid")
		os.Exit(1)
	}
	fmt.Println("valid")
	return nil
}
