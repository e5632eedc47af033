// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"context"

	"dashstrap/internal/launch"
	"dashstrap/internal/pip"

	"github.com/charmbracelet/log"
)

type (
	// RuntimeEnsurer provisions the runtime and returns the interpreter
	// path (stage 1).
	RuntimeEnsurer interface {
		Ensure(ctx context.Context) (string, error)
	}

	// PipActivator enables library discovery and bootstraps the package
	// manager (stage 2).
	PipActivator interface {
		EnablePathConfig() error
		EnsurePip(ctx context.Context) (string, error)
	}

	// PackageInstaller runs the dependency install loop (stage 3).
	PackageInstaller interface {
		Install(ctx context.Context) (*pip.InstallReport, error)
	}

	// AppLauncher starts the target application and reports its exit
	// code (stage 4).
	AppLauncher interface {
		Run(ctx context.Context) (launch.ExitCode, error)
	}

	// Bootstrapper drives the stages in order. A nil Installer stops
	// after activation ("provision" mode); a nil Launcher stops after
	// the install loop ("install" mode).
	Bootstrapper struct {
		Runtime   RuntimeEnsurer
		Activator PipActivator
		Installer PackageInstaller
		Launcher  AppLauncher
		Logger    *log.Logger
	}
)

// Run executes the configured stages and returns the final exit code.
// On the full path that code is the launched application's own, verbatim.
func (b *Bootstrapper) Run(ctx context.Context) (launch.ExitCode, error) {
	if _, err := b.Runtime.Ensure(ctx); err != nil {
		return 1, err
	}

	if err := b.Activator.EnablePathConfig(); err != nil {
		return 1, err
	}
	if _, err := b.Activator.EnsurePip(ctx); err != nil {
		return 1, err
	}

	if b.Installer == nil {
		return 0, nil
	}
	report, err := b.Installer.Install(ctx)
	if err != nil {
		return 1, err
	}
	if !report.Ok() {
		// Best-effort policy: the dashboard runs with whatever versions
		// are already present.
		b.Logger.Warn(report.Summary())
		b.Logger.Warn("the application will run with the current package versions")
	} else {
		b.Logger.Info(report.Summary())
	}

	if b.Launcher == nil {
		return 0, nil
	}
	b.Logger.Info("launching application")
	return b.Launcher.Run(ctx)
}
