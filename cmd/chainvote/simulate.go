package main

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"github.com/takakv/chainvote"
	"github.com/takakv/chainvote/config"
	"github.com/takakv/chainvote/elgamal"
	"github.com/takakv/chainvote/group"
	"github.com/takakv/chainvote/log"
	"github.com/takakv/chainvote/tally"
	"github.com/takakv/chainvote/threshold"
)

func simulateCmd() cli.Command {
	return cli.Command{
		Name:  "simulate",
		Usage: "Run a complete election with random votes",
		Flags: []cli.Flag{
			cli.IntFlag{Name: "voters", Usage: "override the number of voters"},
			cli.IntFlag{Name: "options", Usage: "override the number of options"},
			cli.IntFlag{Name: "faulty", Usage: "number of committee members sending corrupt shares"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("voters") {
				cfg.Election.Voters = c.Int("voters")
			}
			if c.IsSet("options") {
				cfg.Election.Options = c.Int("options")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return simulate(cfg.Election, c.Int("faulty"))
		},
	}
}

func simulate(ec config.Election, faulty int) error {
	g, err := group.ByName(ec.Group)
	if err != nil {
		return err
	}
	log.Infow("setting up election", "group", g.Name(), "options", ec.Options,
		"committee", ec.CommitteeSize, "threshold", ec.Threshold)

	// The dealer stands in for distributed key generation.
	secrets, committee, err := threshold.Deal(g, ec.CommitteeSize, ec.Threshold)
	if err != nil {
		return err
	}
	defer func() {
		for _, s := range secrets {
			s.Destroy()
		}
	}()

	election, err := chainvote.NewElection(committee.PublicKey(), ec.Options)
	if err != nil {
		return err
	}

	// Vote casting
	start := time.Now()
	expected := make([]uint64, ec.Options)
	choices := make([]int, ec.Voters)
	for i := range choices {
		r, err := rand.Int(rand.Reader, big.NewInt(int64(ec.Options)))
		if err != nil {
			return err
		}
		choices[i] = int(r.Int64())
		expected[choices[i]]++
	}
	ballots := make([]*chainvote.Ballot, ec.Voters)
	var eg errgroup.Group
	if ec.Workers > 0 {
		eg.SetLimit(ec.Workers)
	}
	for i, choice := range choices {
		eg.Go(func() error {
			b, err := chainvote.EncryptVote(election, choice)
			if err != nil {
				return fmt.Errorf("voter %d: %w", i, err)
			}
			ballots[i] = b
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	log.Infow("votes cast", "ballots", len(ballots), "duration", time.Since(start).String())

	// Vote verification
	start = time.Now()
	accepted := make([]*chainvote.Ballot, 0, len(ballots))
	for i, err := range chainvote.VerifyBallots(election, ballots, ec.Workers) {
		if err != nil {
			log.Warnw("ballot rejected", "voter", i, "error", err.Error())
			continue
		}
		accepted = append(accepted, ballots[i])
	}
	log.Infow("ballots verified", "accepted", len(accepted), "duration", time.Since(start).String())

	et, err := tally.New(committee, ec.Options)
	if err != nil {
		return err
	}
	vectors := make([]elgamal.Vector, len(accepted))
	for i, b := range accepted {
		vectors[i] = b.Ciphertexts
	}
	if err := et.AddBatch(vectors, nil, ec.Workers); err != nil {
		return err
	}
	if err := et.Close(); err != nil {
		return err
	}

	// Decryption
	start = time.Now()
	sums := et.Ciphertexts()
	for i, s := range secrets {
		ds, err := threshold.GenerateShare(s, sums)
		if err != nil {
			return err
		}
		if i < faulty {
			corrupt(g, ds)
		}
		if err := et.AddShare(ds); err != nil {
			log.Warnw("decrypt share rejected", "member", uint32(ds.Member), "error", err.Error())
		}
	}
	if _, err := et.Combine(); err != nil {
		return err
	}
	bound := ec.Bound()
	res, err := et.Result(tally.NewTable(g, bound))
	if err != nil {
		return err
	}
	log.Infow("tally decrypted", "duration", time.Since(start).String())

	for i := range res.Counts {
		if !res.Valid[i] {
			fmt.Printf("option %d: out of range (expected %d)\n", i, expected[i])
			continue
		}
		fmt.Printf("option %d: %d votes (expected %d)\n", i, res.Counts[i], expected[i])
	}
	return res.Err()
}

// corrupt shifts every partial decryption of ds so that its proofs fail.
func corrupt(g group.Group, ds *threshold.DecryptShare) {
	for _, pd := range ds.Partials {
		pd.D = g.Element().Add(pd.D, g.Generator())
	}
}
