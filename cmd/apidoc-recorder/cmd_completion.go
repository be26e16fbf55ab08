package main

import (
	"flag"
	"fmt"
	"os"
)

func completionCmd() {
	fs := flag.NewFlagSet("completion", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: apidoc-recorder completion <bash|zsh|fish>\n\n")
		fmt.Fprintf(os.Stderr, "Generate shell completion scripts.\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  # Bash\n")
		fmt.Fprintf(os.Stderr, "  apidoc-recorder completion bash > /usr/local/etc/bash_completion.d/apidoc-recorder\n")
		fmt.Fprintf(os.Stderr, "  # Zsh\n")
		fmt.Fprintf(os.Stderr, "  apidoc-recorder completion zsh > \"${fpath[1]}/_apidoc-recorder\"\n")
		fmt.Fprintf(os.Stderr, "  # Fish\n")
		fmt.Fprintf(os.Stderr, "  apidoc-recorder completion fish > ~/.config/fish/completions/apidoc-recorder.fish\n")
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: shell name is required (bash, zsh, or fish)\n\n")
		fs.Usage()
		os.Exit(1)
	}

	shell := fs.Arg(0)
	script, ok := completionScript(shell)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unsupported shell %q (use bash, zsh, or fish)\n", shell)
		os.Exit(1)
	}
	fmt.Print(script)
}

func completionScript(shell string) (string, bool) {
	switch shell {
	case "bash":
		return generateBashCompletion(), true
	case "zsh":
		return generateZshCompletion(), true
	case "fish":
		return generateFishCompletion(), true
	}
	return "", false
}

func generateBashCompletion() string {
	return `# bash completion for apidoc-recorder                    -*- shell-script -*-

_apidoc_recorder() {
    local cur prev words cword
    _init_completion || return

    local commands="record serve status list show clear export import submit completion version help"

    # Flags per subcommand
    local record_flags="--config --no-watch --start --theme"
    local serve_flags="--config --addr --no-watch --start"
    local status_flags="--config --watch --targets"
    local list_flags="--config --grep --method --json"
    local show_flags="--config --json --no-color --curl"
    local clear_flags="--config"
    local export_flags="--config --output"
    local import_flags="--config --all"
    local submit_flags="--config --scenario --backend --timeout"

    local themes="catppuccin-mocha catppuccin-latte nord dracula"
    local methods="GET POST PUT PATCH DELETE HEAD OPTIONS"
    local shells="bash zsh fish"

    if [[ ${cword} -eq 1 ]]; then
        COMPREPLY=($(compgen -W "${commands}" -- "${cur}"))
        return
    fi

    local command="${words[1]}"

    # Complete flag values
    case "${prev}" in
        --config|--output)
            _filedir
            return
            ;;
        --theme)
            COMPREPLY=($(compgen -W "${themes}" -- "${cur}"))
            return
            ;;
        --method)
            COMPREPLY=($(compgen -W "${methods}" -- "${cur}"))
            return
            ;;
        --addr|--grep|--scenario|--backend|--timeout)
            # These take user-provided values, no completion
            return
            ;;
    esac

    # Complete flags for each subcommand
    case "${command}" in
        record)
            COMPREPLY=($(compgen -W "${record_flags}" -- "${cur}"))
            ;;
        serve)
            COMPREPLY=($(compgen -W "${serve_flags}" -- "${cur}"))
            ;;
        status)
            COMPREPLY=($(compgen -W "${status_flags}" -- "${cur}"))
            ;;
        list)
            COMPREPLY=($(compgen -W "${list_flags}" -- "${cur}"))
            ;;
        show)
            COMPREPLY=($(compgen -W "${show_flags}" -- "${cur}"))
            ;;
        clear)
            COMPREPLY=($(compgen -W "${clear_flags}" -- "${cur}"))
            ;;
        export)
            COMPREPLY=($(compgen -W "${export_flags}" -- "${cur}"))
            ;;
        import)
            if [[ "${cur}" == -* ]]; then
                COMPREPLY=($(compgen -W "${import_flags}" -- "${cur}"))
            else
                COMPREPLY=($(compgen -f -X '!*.har' -- "${cur}"))
                _filedir -d
            fi
            ;;
        submit)
            COMPREPLY=($(compgen -W "${submit_flags}" -- "${cur}"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "${shells}" -- "${cur}"))
            ;;
    esac
}

complete -F _apidoc_recorder apidoc-recorder
`
}

func generateZshCompletion() string {
	return `#compdef apidoc-recorder

# zsh completion for apidoc-recorder

_apidoc_recorder() {
    local -a commands
    commands=(
        'record:Launch the recording panel'
        'serve:Run the control API and devtools watcher without a panel'
        'status:Show whether a recording is in progress'
        'list:List recorded requests'
        'show:Print one recorded request'
        'clear:Remove all recorded requests and stop recording'
        'export:Write the recording as a HAR file'
        'import:Load requests from a HAR file'
        'submit:Send the recording to the documentation backend'
        'completion:Generate shell completion scripts'
        'version:Print version information'
        'help:Show help message'
    )

    _arguments -C \
        '1:command:->command' \
        '*::arg:->args'

    case $state in
        command)
            _describe -t commands 'apidoc-recorder commands' commands
            ;;
        args)
            case $words[1] in
                record)
                    _arguments \
                        '--config[Path to config.yaml]:config file:_files' \
                        '--no-watch[Do not attach to the browser devtools]' \
                        '--start[Start recording immediately]' \
                        '--theme[Panel color theme]:theme:(catppuccin-mocha catppuccin-latte nord dracula)'
                    ;;
                serve)
                    _arguments \
                        '--config[Path to config.yaml]:config file:_files' \
                        '--addr[Control API listen address]:address:' \
                        '--no-watch[Only serve the control API]' \
                        '--start[Start recording immediately]'
                    ;;
                status)
                    _arguments \
                        '--config[Path to config.yaml]:config file:_files' \
                        '--watch[Keep printing state changes]' \
                        '--targets[List browser devtools targets]'
                    ;;
                list)
                    _arguments \
                        '--config[Path to config.yaml]:config file:_files' \
                        '--grep[Only show requests whose URL contains this text]:text:' \
                        '--method[Only show requests with this method]:method:(GET POST PUT PATCH DELETE HEAD OPTIONS)' \
                        '--json[Print entries as JSON]'
                    ;;
                show)
                    _arguments \
                        '--config[Path to config.yaml]:config file:_files' \
                        '--json[Print the raw entry as JSON]' \
                        '--no-color[Disable colored JSON]' \
                        '--curl[Print the request as a curl command]' \
                        '1:request number:'
                    ;;
                clear)
                    _arguments \
                        '--config[Path to config.yaml]:config file:_files'
                    ;;
                export)
                    _arguments \
                        '--config[Path to config.yaml]:config file:_files' \
                        '--output[Output file path]:output file:_files -g "*.har"'
                    ;;
                import)
                    _arguments \
                        '--config[Path to config.yaml]:config file:_files' \
                        '--all[Keep traffic the capture filter drops]' \
                        '*:HAR file:_files -g "*.har"'
                    ;;
                submit)
                    _arguments \
                        '--config[Path to config.yaml]:config file:_files' \
                        '--scenario[What the recording shows]:scenario:' \
                        '--backend[Backend base URL]:url:' \
                        '--timeout[Per-call timeout]:timeout:'
                    ;;
                completion)
                    _arguments \
                        '1:shell:(bash zsh fish)'
                    ;;
            esac
            ;;
    esac
}

_apidoc_recorder "$@"
`
}

func generateFishCompletion() string {
	return `# fish completion for apidoc-recorder

# Disable file completions by default
complete -c apidoc-recorder -f

# Subcommands
complete -c apidoc-recorder -n '__fish_use_subcommand' -a record -d 'Launch the recording panel'
complete -c apidoc-recorder -n '__fish_use_subcommand' -a serve -d 'Run the control API and devtools watcher without a panel'
complete -c apidoc-recorder -n '__fish_use_subcommand' -a status -d 'Show whether a recording is in progress'
complete -c apidoc-recorder -n '__fish_use_subcommand' -a list -d 'List recorded requests'
complete -c apidoc-recorder -n '__fish_use_subcommand' -a show -d 'Print one recorded request'
complete -c apidoc-recorder -n '__fish_use_subcommand' -a clear -d 'Remove all recorded requests and stop recording'
complete -c apidoc-recorder -n '__fish_use_subcommand' -a export -d 'Write the recording as a HAR file'
complete -c apidoc-recorder -n '__fish_use_subcommand' -a import -d 'Load requests from a HAR file'
complete -c apidoc-recorder -n '__fish_use_subcommand' -a submit -d 'Send the recording to the documentation backend'
complete -c apidoc-recorder -n '__fish_use_subcommand' -a completion -d 'Generate shell completion scripts'
complete -c apidoc-recorder -n '__fish_use_subcommand' -a version -d 'Print version information'
complete -c apidoc-recorder -n '__fish_use_subcommand' -a help -d 'Show help message'

# shared flags
complete -c apidoc-recorder -n '__fish_seen_subcommand_from record serve status list show clear export import submit' -l config -d 'Path to config.yaml' -rF

# record flags
complete -c apidoc-recorder -n '__fish_seen_subcommand_from record' -l no-watch -d 'Do not attach to the browser devtools'
complete -c apidoc-recorder -n '__fish_seen_subcommand_from record' -l start -d 'Start recording immediately'
complete -c apidoc-recorder -n '__fish_seen_subcommand_from record' -l theme -d 'Panel color theme' -ra 'catppuccin-mocha catppuccin-latte nord dracula'

# serve flags
complete -c apidoc-recorder -n '__fish_seen_subcommand_from serve' -l addr -d 'Control API listen address' -r
complete -c apidoc-recorder -n '__fish_seen_subcommand_from serve' -l no-watch -d 'Only serve the control API'
complete -c apidoc-recorder -n '__fish_seen_subcommand_from serve' -l start -d 'Start recording immediately'

# status flags
complete -c apidoc-recorder -n '__fish_seen_subcommand_from status' -l watch -d 'Keep printing state changes'
complete -c apidoc-recorder -n '__fish_seen_subcommand_from status' -l targets -d 'List browser devtools targets'

# list flags
complete -c apidoc-recorder -n '__fish_seen_subcommand_from list' -l grep -d 'Only show requests whose URL contains this text' -r
complete -c apidoc-recorder -n '__fish_seen_subcommand_from list' -l method -d 'Only show requests with this method' -ra 'GET POST PUT PATCH DELETE HEAD OPTIONS'
complete -c apidoc-recorder -n '__fish_seen_subcommand_from list' -l json -d 'Print entries as JSON'

# show flags
complete -c apidoc-recorder -n '__fish_seen_subcommand_from show' -l json -d 'Print the raw entry as JSON'
complete -c apidoc-recorder -n '__fish_seen_subcommand_from show' -l no-color -d 'Disable colored JSON'
complete -c apidoc-recorder -n '__fish_seen_subcommand_from show' -l curl -d 'Print the request as a curl command'

# export flags
complete -c apidoc-recorder -n '__fish_seen_subcommand_from export' -l output -d 'Output file path' -rF

# import flags
complete -c apidoc-recorder -n '__fish_seen_subcommand_from import' -l all -d 'Keep traffic the capture filter drops'
complete -c apidoc-recorder -n '__fish_seen_subcommand_from import' -F

# submit flags
complete -c apidoc-recorder -n '__fish_seen_subcommand_from submit' -l scenario -d 'What the recording shows' -r
complete -c apidoc-recorder -n '__fish_seen_subcommand_from submit' -l backend -d 'Backend base URL' -r
complete -c apidoc-recorder -n '__fish_seen_subcommand_from submit' -l timeout -d 'Per-call timeout' -r

# completion - shell names
complete -c apidoc-recorder -n '__fish_seen_subcommand_from completion' -a 'bash zsh fish' -d 'Shell type'
`
}
