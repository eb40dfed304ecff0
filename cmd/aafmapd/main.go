/*
DESCRIPTION
  aafmapd is a standalone driver that wires a talker and listener MapCore
  pair against an in-process media queue and runs them through a full
  gen_init -> tx_init/rx_init -> tx/rx -> end/gen_end lifecycle, logging
  everything it does. It exists to exercise the aaf mapping core end to end
  outside of any larger AVTP stack.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main implements aafmapd.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/aafmap"
	"github.com/ausocean/aafmap/aafconfig"
	"github.com/ausocean/aafmap/mediaqueue"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration.
const (
	logPath      = "/var/log/aafmapd/aafmapd.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = true
)

// Stream configuration: 48kHz stereo 16-bit, 250 packets/sec, sparse
// timestamps, with a one-packet Temporal Redundancy offset.
const (
	audioRate      = 48000
	audioChannels  = 2
	audioBitDepth  = 16
	txInterval     = 250
	itemCount      = 8
	packingFactor  = 8 // Multiple of 8, valid under sparse mode.
	madtOffsetUsec = 4000
	runPackets     = 32
)

func main() {
	showVersion := flag.Bool("version", false, "show version")
	flag.Parse()
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stdout), logSuppress)

	log.Info("starting aafmapd", "version", version)

	cfg := aafconfig.Config{
		ItemCount:                   itemCount,
		PackingFactor:               packingFactor,
		TxInterval:                  txInterval,
		SparseMode:                  true,
		TemporalRedundantOffsetUsec: madtOffsetUsec,
		ReportSeconds:               1,
		AudioRate:                   audioRate,
		AudioType:                   aafconfig.AudioTypeInt,
		AudioBitDepth:               audioBitDepth,
		AudioChannels:               audioChannels,
	}

	txQueue := mediaqueue.NewMemQueue()
	talker := aaf.New(log)
	if err := talker.GenInit(cfg, txQueue); err != nil {
		log.Fatal("talker gen_init failed", "error", err)
	}
	if err := talker.TxInit(); err != nil {
		log.Fatal("talker tx_init failed", "error", err)
	}
	defer talker.GenEnd()

	rxQueue := mediaqueue.NewMemQueue()
	listener := aaf.New(log)
	if err := listener.GenInit(cfg, rxQueue); err != nil {
		log.Fatal("listener gen_init failed", "error", err)
	}
	if err := listener.RxInit(); err != nil {
		log.Fatal("listener rx_init failed", "error", err)
	}
	defer listener.GenEnd()

	log.Info("running lifecycle", "packets", runPackets)
	run(talker, listener, txQueue, log)

	if err := talker.End(); err != nil {
		log.Error("talker end failed", "error", err)
	}
	if err := listener.End(); err != nil {
		log.Error("listener end failed", "error", err)
	}
	log.Info("aafmapd finished")
}

// run feeds silence into the talker's queue, drains it one packet at a time
// via Tx, and hands three frames in every four to the listener's Rx,
// reporting the fourth as lost through RxLost, to exercise both the
// sparse-timestamp cadence and the Temporal Redundancy path under simulated
// loss.
func run(talker, listener *aaf.MapCore, txQueue *mediaqueue.MemQueue, log logging.Logger) {
	buf := make([]byte, talker.MaxDataSize())
	for i := 0; i < runPackets; i++ {
		fillItem(txQueue, log)

		n, err := talker.Tx(buf)
		if err == aaf.ErrNotReady {
			continue
		}
		if err != nil {
			log.Warning("tx failed", "packet", i, "error", err)
			continue
		}

		if i%4 == 3 {
			// Simulate one lost packet in every four.
			if err := listener.RxLost(1); err != nil {
				log.Warning("rx_lost failed", "packet", i, "error", err)
			}
			continue
		}
		if err := listener.Rx(buf[:n]); err != nil {
			log.Warning("rx failed", "packet", i, "error", err)
		}
	}
}

// fillItem pushes one media-queue item's worth of silence, with a valid
// timestamp, into q.
func fillItem(q *mediaqueue.MemQueue, log logging.Logger) {
	item := q.HeadLock()
	if item == nil {
		log.Warning("media queue full, dropping generated audio")
		return
	}
	t := item.Time()
	t.SetToTimestamp(uint32(time.Now().UnixMicro()))
	t.SetTimestampValid(true)
	t.SetTimestampUncertain(false)
	item.SetDataLen(len(item.Data()))
	q.HeadPush()
}
