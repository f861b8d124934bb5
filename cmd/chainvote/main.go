package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli"

	"github.com/takakv/chainvote/config"
	"github.com/takakv/chainvote/group"
	"github.com/takakv/chainvote/log"
)

func main() {
	app := cli.NewApp()
	app.Name = "chainvote"
	app.Version = "0.1.0"
	app.Compiled = time.Now()
	app.Usage = "Threshold-decrypted homomorphic voting"
	app.UsageText = "chainvote [options] command [command options] [arguments...]"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load configuration from `FILE`",
		},
	}
	app.Commands = []cli.Command{
		initCmd(),
		simulateCmd(),
		groupsCmd(),
	}

	if err := app.Run(os.Args); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.Output); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initCmd() cli.Command {
	return cli.Command{
		Name:      "init",
		Usage:     "Write the default configuration",
		UsageText: "chainvote init PATH",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("missing configuration path")
			}
			if err := config.Write(path, config.Default()); err != nil {
				return err
			}
			fmt.Printf("configuration written to %s\n", path)
			return nil
		},
	}
}

func groupsCmd() cli.Command {
	return cli.Command{
		Name:  "groups",
		Usage: "List the supported groups",
		Action: func(c *cli.Context) error {
			fmt.Println(strings.Join(group.Names(), "\n"))
			return nil
		},
	}
}
