package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spacenote/spacenote/spacenote/export"
	"github.com/spacenote/spacenote/types"
)

func (cli *CLI) addCommands() {
	cli.rootCmd.AddCommand(
		cli.spaceCommand(),
		cli.fieldCommand(),
		cli.filterCommand(),
		cli.userCommand(),
		cli.noteCommand(),
		cli.commentCommand(),
		cli.attachmentCommand(),
	)
}

func (cli *CLI) spaceCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "space", Short: "Manage spaces"}

	create := &cobra.Command{
		Use:   "create <id> <name>",
		Short: "Create a space with an empty schema",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			members, _ := c.Flags().GetStringSlice("members")
			space, err := app.Spaces.CreateSpace(c.Context(), args[0], args[1], members)
			if err != nil {
				return err
			}
			return printJSON(space)
		},
	}
	create.Flags().StringSlice("members", nil, "Initial member usernames")

	list := &cobra.Command{
		Use:   "list",
		Short: "List all spaces",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			return printJSON(app.Spaces.ListSpaces())
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one space definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			space, err := app.Spaces.GetSpace(args[0])
			if err != nil {
				return err
			}
			return printJSON(space)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a space and all of its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			return app.Spaces.DeleteSpace(c.Context(), args[0])
		},
	}

	members := &cobra.Command{
		Use:   "members <id>",
		Short: "Replace the member list",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			list, _ := c.Flags().GetStringSlice("members")
			return app.Spaces.UpdateMembers(c.Context(), args[0], list)
		},
	}
	members.Flags().StringSlice("members", nil, "Member usernames")

	exportCmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a space definition to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			space, err := app.Spaces.GetSpace(args[0])
			if err != nil {
				return err
			}
			formatName, _ := c.Flags().GetString("format")
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}
			data, err := export.Export(space, format)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
	exportCmd.Flags().String("format", "json", "Export format (json|yaml)")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a space definition from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			format := export.FormatJSON
			if ext := strings.ToLower(args[0]); strings.HasSuffix(ext, ".yaml") || strings.HasSuffix(ext, ".yml") {
				format = export.FormatYAML
			}
			def, err := export.Parse(data, format)
			if err != nil {
				return err
			}
			space, err := app.Spaces.ImportSpace(c.Context(), def.Space())
			if err != nil {
				return err
			}
			return printJSON(space)
		},
	}

	cmd.AddCommand(create, list, show, del, members, exportCmd, importCmd)
	return cmd
}

func (cli *CLI) fieldCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "field", Short: "Manage space fields"}

	add := &cobra.Command{
		Use:   "add <space>",
		Short: "Add a field to a space schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			field, err := fieldFromFlags(c)
			if err != nil {
				return err
			}
			return app.Spaces.AddField(c.Context(), args[0], field)
		},
	}
	add.Flags().String("name", "", "Field name")
	add.Flags().String("type", "", "Field type")
	add.Flags().Bool("required", false, "Mark the field required")
	add.Flags().StringSlice("values", nil, "Allowed values (choice fields)")
	add.Flags().String("min", "", "Minimum value (int/float fields)")
	add.Flags().String("max", "", "Maximum value (int/float fields)")
	add.Flags().String("default", "", "Default value")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("type")

	cmd.AddCommand(add)
	return cmd
}

// fieldFromFlags assembles a field definition from command flags. Values
// stay raw; configuration validation coerces and checks them.
func fieldFromFlags(c *cobra.Command) (types.SpaceField, error) {
	name, _ := c.Flags().GetString("name")
	typeName, _ := c.Flags().GetString("type")
	required, _ := c.Flags().GetBool("required")

	field := types.SpaceField{
		Name:     name,
		Type:     types.FieldType(typeName),
		Required: required,
	}

	options := map[types.FieldOption]any{}
	if values, _ := c.Flags().GetStringSlice("values"); len(values) > 0 {
		options[types.OptionValues] = values
	}
	for _, bound := range []struct {
		flag   string
		option types.FieldOption
	}{{"min", types.OptionMin}, {"max", types.OptionMax}} {
		raw, _ := c.Flags().GetString(bound.flag)
		if raw == "" {
			continue
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.SpaceField{}, fmt.Errorf("%w: invalid --%s value %q", types.ErrConfig, bound.flag, raw)
		}
		options[bound.option] = n
	}
	if len(options) > 0 {
		field.Options = options
	}

	if def, _ := c.Flags().GetString("default"); def != "" {
		field.Default = def
	}
	return field, nil
}

func (cli *CLI) filterCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "filter", Short: "Manage saved filters"}

	add := &cobra.Command{
		Use:   "add <space> <file>",
		Short: "Add a filter from a JSON definition file",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			filter, err := readFilterFile(args[1])
			if err != nil {
				return err
			}
			return app.Spaces.AddFilter(c.Context(), args[0], filter)
		},
	}

	update := &cobra.Command{
		Use:   "update <space> <file>",
		Short: "Replace a filter from a JSON definition file",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			filter, err := readFilterFile(args[1])
			if err != nil {
				return err
			}
			return app.Spaces.UpdateFilter(c.Context(), args[0], filter)
		},
	}

	del := &cobra.Command{
		Use:   "delete <space> <filter>",
		Short: "Delete a filter",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			return app.Spaces.DeleteFilter(c.Context(), args[0], args[1])
		},
	}

	cmd.AddCommand(add, update, del)
	return cmd
}

func (cli *CLI) userCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage users and sessions"}

	create := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			password, _ := c.Flags().GetString("password")
			user, err := app.Users.CreateUser(c.Context(), args[0], password)
			if err != nil {
				return err
			}
			return printJSON(user)
		},
	}
	create.Flags().String("password", "", "Initial password")
	_ = create.MarkFlagRequired("password")

	list := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			return printJSON(app.Users.ListUsers())
		},
	}

	login := &cobra.Command{
		Use:   "login <username>",
		Short: "Verify credentials and print a session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			password, _ := c.Flags().GetString("password")
			session, err := app.Users.Login(c.Context(), args[0], password)
			if err != nil {
				return err
			}
			return printJSON(session)
		},
	}
	login.Flags().String("password", "", "Password")
	_ = login.MarkFlagRequired("password")

	cmd.AddCommand(create, list, login)
	return cmd
}

func (cli *CLI) noteCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "note", Short: "Manage notes"}

	create := &cobra.Command{
		Use:   "create <space>",
		Short: "Create a note from --set field values",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			user, err := cli.currentUser(app)
			if err != nil {
				return err
			}
			raw, err := rawFieldValues(c)
			if err != nil {
				return err
			}
			note, err := app.Notes.CreateNoteFromRaw(c.Context(), args[0], user, raw)
			if err != nil {
				return err
			}
			return printJSON(note)
		},
	}
	create.Flags().StringArray("set", nil, "Field value as name=value (repeatable)")

	update := &cobra.Command{
		Use:   "update <space> <id>",
		Short: "Replace a note's field values",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			user, err := cli.currentUser(app)
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			raw, err := rawFieldValues(c)
			if err != nil {
				return err
			}
			note, err := app.Notes.UpdateNoteFromRaw(c.Context(), args[0], id, user, raw)
			if err != nil {
				return err
			}
			return printJSON(note)
		},
	}
	update.Flags().StringArray("set", nil, "Field value as name=value (repeatable)")

	show := &cobra.Command{
		Use:   "show <space> <id>",
		Short: "Show one note",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			note, err := app.Notes.GetNote(c.Context(), args[0], id)
			if err != nil {
				return err
			}
			return printJSON(note)
		},
	}

	list := &cobra.Command{
		Use:   "list <space>",
		Short: "List notes, optionally through a saved filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			user, err := cli.currentUser(app)
			if err != nil {
				return err
			}
			filterID, _ := c.Flags().GetString("filter")
			page, _ := c.Flags().GetInt("page")
			pageSize, _ := c.Flags().GetInt("page-size")
			result, err := app.Notes.ListNotes(c.Context(), args[0], filterID, user, page, pageSize)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	list.Flags().String("filter", "", "Saved filter id")
	list.Flags().Int("page", 1, "Page number (1-based)")
	list.Flags().Int("page-size", 0, "Page size (0 uses the space default)")

	del := &cobra.Command{
		Use:   "delete <space> <id>",
		Short: "Delete a note and its comments",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			return app.Notes.DeleteNote(c.Context(), args[0], id)
		},
	}

	cmd.AddCommand(create, update, show, list, del)
	return cmd
}

func (cli *CLI) commentCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "comment", Short: "Manage note comments"}

	add := &cobra.Command{
		Use:   "add <space> <note> <content>",
		Short: "Comment on a note",
		Args:  cobra.ExactArgs(3),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			user, err := cli.currentUser(app)
			if err != nil {
				return err
			}
			noteID, err := parseID(args[1])
			if err != nil {
				return err
			}
			comment, err := app.Comments.CreateComment(c.Context(), args[0], noteID, user, args[2])
			if err != nil {
				return err
			}
			return printJSON(comment)
		},
	}

	list := &cobra.Command{
		Use:   "list <space> <note>",
		Short: "List a note's comments",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			noteID, err := parseID(args[1])
			if err != nil {
				return err
			}
			comments, err := app.Comments.ListComments(c.Context(), args[0], noteID)
			if err != nil {
				return err
			}
			return printJSON(comments)
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func (cli *CLI) attachmentCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "attachment", Short: "Manage file attachments"}

	add := &cobra.Command{
		Use:   "add <space> <file>",
		Short: "Record an uploaded file as an unassigned attachment",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			user, err := cli.currentUser(app)
			if err != nil {
				return err
			}
			if user == nil {
				return fmt.Errorf("%w: --as is required to upload attachments", types.ErrValidation)
			}
			info, err := os.Stat(args[1])
			if err != nil {
				return err
			}
			contentType, _ := c.Flags().GetString("content-type")
			att, err := app.Attachments.CreateAttachment(c.Context(), args[0], user.ID, info.Name(), contentType, info.Size())
			if err != nil {
				return err
			}
			return printJSON(att)
		},
	}
	add.Flags().String("content-type", "application/octet-stream", "MIME type of the file")

	list := &cobra.Command{
		Use:   "list <space>",
		Short: "List attachments, unassigned by default",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := cli.openApp(c.Context())
			if err != nil {
				return err
			}
			if noteArg, _ := c.Flags().GetString("note"); noteArg != "" {
				noteID, err := parseID(noteArg)
				if err != nil {
					return err
				}
				attachments, err := app.Attachments.ListByNote(c.Context(), args[0], noteID)
				if err != nil {
					return err
				}
				return printJSON(attachments)
			}
			attachments, err := app.Attachments.ListUnassigned(c.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(attachments)
		},
	}
	list.Flags().String("note", "", "List attachments assigned to this note id")

	cmd.AddCommand(add, list)
	return cmd
}

// rawFieldValues parses repeated --set name=value flags into the raw map
// field validation consumes.
func rawFieldValues(c *cobra.Command) (map[string]string, error) {
	pairs, _ := c.Flags().GetStringArray("set")
	raw := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: --set expects name=value, got %q", types.ErrValidation, pair)
		}
		raw[name] = value
	}
	return raw, nil
}

// readFilterFile decodes a filter definition from a JSON file. Schema
// validation happens in the space service.
func readFilterFile(path string) (types.Filter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Filter{}, err
	}
	var filter types.Filter
	if err := json.Unmarshal(data, &filter); err != nil {
		return types.Filter{}, fmt.Errorf("failed to parse filter file %q: %w", path, err)
	}
	return filter, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", types.ErrValidation, s)
	}
	return id, nil
}
