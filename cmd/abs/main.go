package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/abs-build/abs/internal/common"
	"github.com/abs-build/abs/internal/config"
	"github.com/abs-build/abs/internal/engine"
)

const defaultConfigName = "abs.toml"

func failedStart(err interface{}) {
	_, _ = fmt.Fprintln(os.Stderr, "[abs]", err)
	os.Exit(1)
}

func loadTank(c *cli.Context) (*engine.Tank, error) {
	doc, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	tank, err := engine.NewTank(doc)
	if err != nil {
		return nil, err
	}
	logger, err := common.MakeLogger(c.String("log-file"), c.Int64("log-verbosity"), true, true)
	if err != nil {
		return nil, err
	}
	tank.Logger = logger
	return tank, nil
}

func newTankCommand(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return cli.Exit("usage: abs new <tank-name>", 1)
	}
	if _, err := os.Stat(name); err == nil {
		return cli.Exit(fmt.Sprintf("'%s' already exists", name), 1)
	}

	for _, dir := range []string{name, name + "/src", name + "/include"} {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
	}

	mainCpp := `#include <cstdio>

int main() {
    std::printf("hello from ` + name + `\n");
    return 0;
}
`
	if err := os.WriteFile(name+"/src/main.cpp", []byte(mainCpp), 0644); err != nil {
		return err
	}

	tankToml := fmt.Sprintf(`[tank]
name = "%s"
version = "0.1.0"

[sections.%s]
source = "src"
include = "include"
type = "executable"
`, name, name)
	if err := os.WriteFile(name+"/"+defaultConfigName, []byte(tankToml), 0644); err != nil {
		return err
	}

	common.StatusLine("%s tank '%s'", common.GreenBold("Created"), name)
	return nil
}

func filesCommand(c *cli.Context) error {
	tank, err := loadTank(c)
	if err != nil {
		return err
	}
	for _, name := range tank.SectionNames() {
		section := tank.Sections[name]
		fmt.Fprintf(common.Stdout, "%s (%s)\n", common.Cyan(section.Name), section.OutletType)
		for _, file := range section.Files {
			fmt.Fprintf(common.Stdout, "  %s\n", file.Path())
		}
	}
	return nil
}

func checkCommand(c *cli.Context) error {
	tank, err := loadTank(c)
	if err != nil {
		return err
	}
	if err := tank.Check(c.String("profile")); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}

func buildCommand(c *cli.Context) error {
	tank, err := loadTank(c)
	if err != nil {
		return err
	}
	if err := tank.Build(c.String("profile")); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}

func runCommand(c *cli.Context) error {
	tank, err := loadTank(c)
	if err != nil {
		return err
	}
	if err := tank.Run(c.String("profile")); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}

func main() {
	profileFlag := &cli.StringFlag{
		Name:    "profile",
		Aliases: []string{"p"},
		Usage:   "profile to build against",
		Value:   "debug",
	}
	configFlag := &cli.StringFlag{
		Name:  "config",
		Usage: "path to the tank's abs.toml",
		Value: defaultConfigName,
	}
	logFileFlag := &cli.StringFlag{
		Name:  "log-file",
		Usage: "diagnostic log file; with the default \"stderr\" no info lines are logged and errors are echoed to stderr",
		Value: "stderr",
	}
	logVerbosityFlag := &cli.Int64Flag{
		Name:  "log-verbosity",
		Usage: "diagnostic log verbosity (-1 silent, 0 normal, up to 2)",
		Value: 0,
	}

	app := &cli.App{
		Name:    "abs",
		Usage:   "a declarative, profile-aware incremental build driver for C/C++ projects",
		Version: common.GetVersion(),
		Flags:   []cli.Flag{configFlag, logFileFlag, logVerbosityFlag},
		Commands: []*cli.Command{
			{
				Name:      "new",
				Usage:     "scaffold a new tank directory",
				ArgsUsage: "<tank-name>",
				Action:    newTankCommand,
			},
			{
				Name:   "files",
				Usage:  "print every section's discovered file set",
				Action: filesCommand,
			},
			{
				Name:   "check",
				Usage:  "syntax-check the dirty set without linking",
				Flags:  []cli.Flag{profileFlag},
				Action: checkCommand,
			},
			{
				Name:   "build",
				Usage:  "compile and link every section",
				Flags:  []cli.Flag{profileFlag},
				Action: buildCommand,
			},
			{
				Name:   "run",
				Usage:  "build, then execute every executable section",
				Flags:  []cli.Flag{profileFlag},
				Action: runCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		failedStart(err)
	}
}
