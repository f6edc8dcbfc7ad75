package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shelfmark/internal/session"
	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
	}
	cmd.AddCommand(newProfileShowCmd(a), newProfileSetCmd(a))
	return cmd
}

// profileCache opens the library and wraps its store in a session cache.
func (a *app) profileCache(cmd *cobra.Command) (*session.Cache, error) {
	if _, err := a.openLibrary(cmd.Context()); err != nil {
		return nil, err
	}
	return session.NewCache(a.store, a.log), nil
}

func newProfileShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display your profile",
		Args:  posArgs(cobra.NoArgs),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			cache, err := a.profileCache(cmd)
			if err != nil {
				return err
			}
			p, err := cache.Profile(cmd.Context())
			if errors.Is(err, types.ErrNotFound) {
				return fmt.Errorf("no profile for %s yet, create one with 'shelf profile set': %w", a.user, err)
			}
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), p, func(w io.Writer) error {
				return printProfile(w, p)
			})
		}),
	}
}

func newProfileSetCmd(a *app) *cobra.Command {
	var name, email, avatar, bio string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update your profile",
		Long:  "Only the flags given are changed. A new profile needs --name.",
		Args:  posArgs(cobra.NoArgs),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			cache, err := a.profileCache(cmd)
			if err != nil {
				return err
			}
			p, err := cache.Profile(cmd.Context())
			switch {
			case errors.Is(err, types.ErrNotFound):
				p = &types.Profile{UserID: a.user}
			case err != nil:
				return err
			}
			f := cmd.Flags()
			if f.Changed("name") {
				p.DisplayName = name
			}
			if f.Changed("email") {
				p.Email = email
			}
			if f.Changed("avatar") {
				p.AvatarURL = avatar
			}
			if f.Changed("bio") {
				p.Bio = bio
			}
			if err := a.store.SaveProfile(cmd.Context(), p); err != nil {
				return err
			}
			cache.Set(p)
			return a.render(cmd.OutOrStdout(), p, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Profile saved for %s.\n", p.DisplayName)
				return err
			})
		}),
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "display name")
	f.StringVar(&email, "email", "", "email address")
	f.StringVar(&avatar, "avatar", "", "avatar image URL")
	f.StringVar(&bio, "bio", "", "short bio")
	return cmd
}

func printProfile(w io.Writer, p *types.Profile) error {
	fmt.Fprintf(w, "User:    %s\n", p.UserID)
	fmt.Fprintf(w, "Name:    %s\n", p.DisplayName)
	if p.Email != "" {
		fmt.Fprintf(w, "Email:   %s\n", p.Email)
	}
	if p.AvatarURL != "" {
		fmt.Fprintf(w, "Avatar:  %s\n", p.AvatarURL)
	}
	if p.Bio != "" {
		fmt.Fprintf(w, "\n%s\n", p.Bio)
	}
	return nil
}
