package config

// DefaultConfigINI is a complete, commented sample taskmaster.ini, written
// by `taskmasterd init`.
const DefaultConfigINI = `; taskmaster configuration file

[general]
sockfile = /var/run/taskmaster.sock
; pidfile = /var/run/taskmaster.pid
; loglevel = info                 ; debug, info, warn, error
; logformat = json                ; json, text
; logfile =                       ; empty logs to stdout
; metricsaddr =                   ; e.g. 127.0.0.1:9090, loopback only, empty disables

; [program:example]
; command = /usr/bin/example
; numprocs = 1                 ; number of instances
; autostart = true             ; start on daemon startup
; autorestart = unexpected     ; unexpected, always, never
; startsecs = 1                ; seconds before considered started
; startretries = 3             ; max retries before FATAL
; exitcodes = 0                ; comma-separated expected exit codes
; stopsignal = TERM            ; POSIX signal name without the SIG prefix
; stopwaitsecs = 10            ; seconds to wait before SIGKILL
; stdout_logfile = /var/log/taskmaster/example.stdout.log
; stderr_logfile = /var/log/taskmaster/example.stderr.log
; directory = /                ; working directory
; umask = 022                  ; octal file creation mask
; user =                       ; run as this login name
; environment = KEY=value,OTHER=value2
`
