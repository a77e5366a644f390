package main

import (
	"fmt"
	"io"
	"strings"
)

// shellQuote wraps s in single quotes for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// generateBash writes a bash completion script.
func generateBash(w io.Writer) error {
	cmds := getCommands()
	var b strings.Builder

	b.WriteString("# bash completion for pdf4ofd\n")
	b.WriteString("_pdf4ofd() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    COMPREPLY=()\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n\n")
	fmt.Fprintf(&b, "    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W %s -- \"$cur\"))\n", shellQuote(strings.Join(commandNames(cmds), " ")))
	b.WriteString("        compopt -o default 2>/dev/null\n")
	b.WriteString("        return 0\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    case \"$cmd\" in\n")

	for _, c := range cmds {
		fmt.Fprintf(&b, "    %s)\n", c.Name)
		var valueCases []string
		for _, f := range c.Flags {
			if !f.takesValue() {
				continue
			}
			pattern := "--" + f.Long
			if f.Short != "" {
				pattern += "|-" + f.Short
			}
			switch f.Type {
			case flagEnum:
				valueCases = append(valueCases, fmt.Sprintf("            %s) COMPREPLY=($(compgen -W %s -- \"$cur\")); return 0 ;;",
					pattern, shellQuote(strings.Join(f.Values, " "))))
			case flagDir:
				valueCases = append(valueCases, fmt.Sprintf("            %s) COMPREPLY=($(compgen -d -- \"$cur\")); return 0 ;;", pattern))
			case flagFile:
				valueCases = append(valueCases, fmt.Sprintf("            %s) COMPREPLY=($(compgen -f -- \"$cur\")); return 0 ;;", pattern))
			default:
				valueCases = append(valueCases, fmt.Sprintf("            %s) return 0 ;;", pattern))
			}
		}
		if len(valueCases) > 0 {
			b.WriteString("        case \"$prev\" in\n")
			b.WriteString(strings.Join(valueCases, "\n"))
			b.WriteString("\n        esac\n")
		}
		if len(c.Flags) > 0 {
			b.WriteString("        if [[ \"$cur\" == -* ]]; then\n")
			fmt.Fprintf(&b, "            COMPREPLY=($(compgen -W %s -- \"$cur\"))\n", shellQuote(strings.Join(flagNames(c.Flags), " ")))
			b.WriteString("            return 0\n")
			b.WriteString("        fi\n")
		}
		if c.Name == "help" {
			fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W %s -- \"$cur\"))\n", shellQuote(strings.Join(commandNames(cmds), " ")))
		}
		if c.Name == "completion" {
			b.WriteString("        COMPREPLY=($(compgen -W 'bash zsh fish powershell' -- \"$cur\"))\n")
		}
		if c.TakesFiles {
			b.WriteString("        COMPREPLY=($(compgen -f -- \"$cur\"))\n")
		}
		b.WriteString("        ;;\n")
	}

	b.WriteString("    *)\n")
	b.WriteString("        COMPREPLY=($(compgen -f -- \"$cur\"))\n")
	b.WriteString("        ;;\n")
	b.WriteString("    esac\n")
	b.WriteString("}\n")
	b.WriteString("complete -o filenames -F _pdf4ofd pdf4ofd\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// zshEscape escapes brackets and colons inside an _arguments spec.
func zshEscape(s string) string {
	r := strings.NewReplacer("[", `\[`, "]", `\]`, ":", `\:`, "'", `'\''`)
	return r.Replace(s)
}

// zshAction is the _arguments action for a flag value.
func zshAction(f flagDef) string {
	switch f.Type {
	case flagEnum:
		return ":" + f.Long + ":(" + strings.Join(f.Values, " ") + ")"
	case flagDir:
		return ":directory:_files -/"
	case flagFile:
		exts := globExtensions(f.FileGlob)
		if len(exts) == 0 {
			return ":file:_files"
		}
		return ":file:_files -g \"*.(" + strings.Join(exts, "|") + ")\""
	case flagBool:
		return ""
	default:
		return ":" + f.Long + ":"
	}
}

// generateZsh writes a zsh completion script.
func generateZsh(w io.Writer) error {
	cmds := getCommands()
	var b strings.Builder

	b.WriteString("#compdef pdf4ofd\n\n")
	b.WriteString("_pdf4ofd() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	b.WriteString("    )\n\n")
	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("        _files\n")
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    case \"${words[2]}\" in\n")

	for _, c := range cmds {
		fmt.Fprintf(&b, "    %s)\n", c.Name)
		switch c.Name {
		case "help":
			b.WriteString("        _describe 'command' commands\n")
		case "completion":
			b.WriteString("        _values 'shell' bash zsh fish powershell\n")
		default:
			b.WriteString("        _arguments -s \\\n")
			for _, f := range c.Flags {
				spec := fmt.Sprintf("--%s[%s]%s", f.Long, zshEscape(f.Desc), zshAction(f))
				if f.Short != "" {
					spec = fmt.Sprintf("{-%s,--%s}'[%s]%s'", f.Short, f.Long, zshEscape(f.Desc), zshAction(f))
					fmt.Fprintf(&b, "            %s \\\n", spec)
					continue
				}
				fmt.Fprintf(&b, "            '%s' \\\n", spec)
			}
			if c.TakesFiles {
				exts := globExtensions(c.FilePattern)
				fmt.Fprintf(&b, "            '*:input:_files -g \"*.(%s)\"'\n", strings.Join(exts, "|"))
			} else {
				b.WriteString("            '*: :'\n")
			}
		}
		b.WriteString("        ;;\n")
	}

	b.WriteString("    *)\n")
	b.WriteString("        _files\n")
	b.WriteString("        ;;\n")
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("compdef _pdf4ofd pdf4ofd\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// generateFish writes a fish completion script.
func generateFish(w io.Writer) error {
	cmds := getCommands()
	var b strings.Builder
	names := strings.Join(commandNames(cmds), " ")

	b.WriteString("# fish completion for pdf4ofd\n")
	b.WriteString("complete -c pdf4ofd -f\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c pdf4ofd -n 'not __fish_seen_subcommand_from %s' -a %s -d %s\n",
			names, c.Name, shellQuote(c.Desc))
	}

	for _, c := range cmds {
		cond := fmt.Sprintf("-n '__fish_seen_subcommand_from %s'", c.Name)
		for _, f := range c.Flags {
			line := fmt.Sprintf("complete -c pdf4ofd %s -l %s", cond, f.Long)
			if f.Short != "" {
				line += " -s " + f.Short
			}
			switch f.Type {
			case flagBool:
			case flagEnum:
				line += " -x -a " + shellQuote(strings.Join(f.Values, " "))
			case flagDir:
				line += " -x -a '(__fish_complete_directories)'"
			case flagFile:
				line += " -r -F"
			default:
				line += " -x"
			}
			line += " -d " + shellQuote(f.Desc)
			b.WriteString(line + "\n")
		}
		switch {
		case c.TakesFiles:
			for _, ext := range globExtensions(c.FilePattern) {
				fmt.Fprintf(&b, "complete -c pdf4ofd %s -a '(__fish_complete_suffix .%s)'\n", cond, ext)
			}
		case c.Name == "help":
			fmt.Fprintf(&b, "complete -c pdf4ofd %s -a %s\n", cond, shellQuote(names))
		case c.Name == "completion":
			fmt.Fprintf(&b, "complete -c pdf4ofd %s -a 'bash zsh fish powershell'\n", cond)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// psQuote wraps s in PowerShell single quotes.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// generatePowerShell writes a PowerShell completion script.
func generatePowerShell(w io.Writer) error {
	cmds := getCommands()
	var b strings.Builder

	b.WriteString("# PowerShell completion for pdf4ofd\n")
	b.WriteString("Register-ArgumentCompleter -Native -CommandName pdf4ofd -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n")
	b.WriteString("    $commands = @{\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        %s = %s\n", psQuote(c.Name), psQuote(c.Desc))
	}
	b.WriteString("    }\n\n")
	b.WriteString("    $flags = @{\n")
	for _, c := range cmds {
		quoted := make([]string, 0, len(c.Flags))
		for _, n := range flagNames(c.Flags) {
			quoted = append(quoted, psQuote(n))
		}
		fmt.Fprintf(&b, "        %s = @(%s)\n", psQuote(c.Name), strings.Join(quoted, ", "))
	}
	b.WriteString("    }\n\n")
	b.WriteString("    $values = @{\n")
	for _, c := range cmds {
		for _, f := range c.Flags {
			if f.Type != flagEnum {
				continue
			}
			quoted := make([]string, len(f.Values))
			for i, v := range f.Values {
				quoted[i] = psQuote(v)
			}
			fmt.Fprintf(&b, "        %s = @(%s)\n", psQuote("--"+f.Long), strings.Join(quoted, ", "))
		}
	}
	b.WriteString("    }\n\n")
	b.WriteString("    $elements = $commandAst.CommandElements | ForEach-Object { $_.ToString() }\n")
	b.WriteString("    if ($elements.Count -le 1 -or ($elements.Count -eq 2 -and $wordToComplete)) {\n")
	b.WriteString("        $commands.Keys | Where-Object { $_ -like \"$wordToComplete*\" } | Sort-Object | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $commands[$_])\n")
	b.WriteString("        }\n")
	b.WriteString("        return\n")
	b.WriteString("    }\n\n")
	b.WriteString("    $cmd = $elements[1]\n")
	b.WriteString("    $prev = $elements[-1]\n")
	b.WriteString("    if ($wordToComplete) { $prev = $elements[-2] }\n")
	b.WriteString("    if ($values.ContainsKey($prev)) {\n")
	b.WriteString("        $values[$prev] | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)\n")
	b.WriteString("        }\n")
	b.WriteString("        return\n")
	b.WriteString("    }\n")
	b.WriteString("    if ($cmd -eq 'completion') {\n")
	b.WriteString("        'bash', 'zsh', 'fish', 'powershell' | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)\n")
	b.WriteString("        }\n")
	b.WriteString("        return\n")
	b.WriteString("    }\n")
	b.WriteString("    if ($wordToComplete -like '-*' -and $flags.ContainsKey($cmd)) {\n")
	b.WriteString("        $flags[$cmd] | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterName', $_)\n")
	b.WriteString("        }\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}
