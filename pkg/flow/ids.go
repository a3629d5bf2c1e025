package flow

import "fmt"

func startEntryID(target string) string { return fmt.Sprintf("e-start-%s", target) }

func pageEntryID(pageID, blockID string) string { return fmt.Sprintf("e-entry-%s-%s", pageID, blockID) }

func sequentialID(source, target string) string { return fmt.Sprintf("e-seq-%s-%s", source, target) }

func pageToPageID(source, target string) string { return fmt.Sprintf("e-page-%s-%s", source, target) }

func ruleEdgeID(blockID string, index int) string { return fmt.Sprintf("e-rule-%s-%d", blockID, index) }
