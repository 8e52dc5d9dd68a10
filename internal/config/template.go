package config

// Template is the commented default configuration written by the
// template subcommand. It encodes the same values Default returns.
const Template = `# EIDA quality check configuration.
# Durations use Go syntax: 60s, 5m, 24h.

log_level: info

paths:
  # Working directory of the prober. The remaining paths default to
  # locations inside it.
  base_dir: /var/lib/eidaqc
  result_dir: /var/lib/eidaqc/results
  consistency_dir: /var/lib/eidaqc/consistency
  cache_dir: /var/lib/eidaqc/cache
  report_path: /var/lib/eidaqc/eida_report.md
  marker_path: /var/lib/eidaqc/eidaqc.run

networks:
  # Entry point answering routed station and dataselect queries for the
  # whole federation.
  routing_url: https://eida-federator.ethz.ch
  # Channels worth probing. Matching is on the band and instrument
  # letters, so HHZ also admits HHN and HHE.
  wanted_channels: [HHZ, BHZ, EHZ, SHZ]
  # Networks that are never probed, typically temporary or non-European
  # deployments.
  exclude: [1N, 1T, 3C, 4H, 5M, 7A, 8C, 9C, 9H, XK, XN, XT, XW, YW, YZ,
            Z3, ZF, ZJ, ZM, ZS, AI, AW, CK, CN, CX, GL, IO, IQ, KC, KP,
            MQ, NA, ND, NU, PF, WC, WI]
  # Acceptance probabilities in (0,1], thinning out very large networks
  # in the station draw.
  weights:
    NL: 0.5
  # Flagship network of each federation member and the data center
  # serving it directly.
  reference:
    NL: https://www.orfeus-eu.org
    GE: https://geofon.gfz-potsdam.de
    FR: https://ws.resif.fr
    CH: https://eida.ethz.ch
    GR: https://eida.bgr.de
    BW: https://erde.geophysik.uni-muenchen.de
    RO: https://eida-sc3.infp.ro
    KO: https://eida.koeri.boun.edu.tr
    HL: https://eida.gein.noa.gr
    NO: http://eida.geo.uib.no
    CA: https://ws.icgc.cat
    IV: https://webservices.ingv.it
  # Accept fresh catalogs even when reference networks are absent. Use
  # this once to force the creation of an initial inventory.
  ignore_missing_reference: false
  # How far into the past catalog queries and request windows reach.
  timespan: 8760h

inventory_cache:
  # Refresh cached catalogs older than this.
  max_age: 120h
  # Back off this long after a failed refresh attempt.
  retry_wait: 1h
  request_timeout: 60s
  # Fresh catalogs listing fewer networks are rejected as implausible.
  min_networks: 80

availability:
  # Bounds of the randomly drawn request window length.
  min_request_length: 60s
  max_request_length: 600s
  request_timeout: 60s

guard:
  # Marker age above which a previous probe run counts as wedged and is
  # taken over.
  max_age: 300s

consistency:
  # Catalog granularity requested from every endpoint: network, station
  # or channel.
  level: network
  request_timeout: 240s
  # Result log rotation: daily or weekly, keeping backup_count old files.
  rotation: daily
  backup_count: 12

report:
  # Full availability span of the report.
  window: 2208h
  # Recent slice bounding the trend table and the consistency section.
  recent_window: 336h
  # Trend bin width.
  granularity: 8h
  worst_stations: 10

redis:
  # Mirror the latest outcome and per-status counters to Redis for the
  # status endpoint of daemon mode.
  enabled: false
  address: localhost:6379
  password: ""
  db: 0
  dial_timeout: 5s
  read_timeout: 3s
  write_timeout: 3s
  pool_size: 10
  # Expiry of the mirrored latest-outcome key. Zero keeps it until the
  # next probe overwrites it.
  latest_ttl: 0s

server:
  # Ops listener of daemon mode: /health, /metrics and /api/v1/status.
  host: 127.0.0.1
  port: 8341
  read_timeout: 15s
  write_timeout: 30s
  shutdown_timeout: 10s

daemon:
  availability_interval: 5m
  consistency_interval: 24h
`
